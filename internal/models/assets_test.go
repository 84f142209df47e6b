package models

import "testing"

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"pants_blue_1", "pants"},
		{"shorts_red_12", "shorts"},
		{"t_shirt_green_2", "t_shirt"},
		{"tomatoes_1", "tomatoes"},
		{"dogs", "dogs"},
		{"dress_blue", "dress_blue"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BaseName(tt.name); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRecolor(t *testing.T) {
	if got := Recolor("shorts_blue_1", "red"); got != "shorts_red_1" {
		t.Errorf("Recolor = %q, want shorts_red_1", got)
	}
	if got := Recolor("tomatoes_1", "green"); got != "tomatoes_green_1" {
		t.Errorf("Recolor = %q, want tomatoes_green_1", got)
	}
}

func TestAssetPaths(t *testing.T) {
	p := AssetPaths{}
	if got := p.Image("clothes", "shorts", "shorts_blue_1"); got != "/clothes/shorts/shorts_blue_1.png" {
		t.Errorf("Image = %q", got)
	}
	if got := p.WordClip("clothes", "shorts"); got != "/clothes/shorts/shorts.m4a" {
		t.Errorf("WordClip = %q", got)
	}
	if got := p.Prompt(); got != "/what_is_this.m4a" {
		t.Errorf("Prompt = %q", got)
	}

	rooted := AssetPaths{Root: "/static/items/", AudioExt: ".mp3", PromptClip: "/static/what_is_this.m4a"}
	if got := rooted.Image("animals", "dogs", "dogs_1"); got != "/static/items/animals/dogs/dogs_1.png" {
		t.Errorf("rooted Image = %q", got)
	}
	if got := rooted.WordClip("animals", "dogs"); got != "/static/items/animals/dogs/dogs.mp3" {
		t.Errorf("rooted WordClip = %q", got)
	}
}

func TestAudioComparisonCorrect(t *testing.T) {
	tests := []struct {
		match      bool
		confidence float64
		want       bool
	}{
		{true, 71, true},
		{true, 70.01, true},
		{true, 70, false},
		{true, 12, false},
		{false, 99, false},
	}

	for _, tt := range tests {
		c := AudioComparison{Match: tt.match, Confidence: tt.confidence}
		if got := c.Correct(); got != tt.want {
			t.Errorf("Correct(match=%v, confidence=%v) = %v, want %v", tt.match, tt.confidence, got, tt.want)
		}
	}
}

func TestTopicResolved(t *testing.T) {
	var nilTopic *SessionTopic
	if nilTopic.Resolved() {
		t.Error("nil topic should not be resolved")
	}
	if (&SessionTopic{OwnerID: 3}).Resolved() {
		t.Error("empty topic should not be resolved")
	}
	topic := &SessionTopic{Dimension: "المجموعات الضمنية", Category: "clothes", Subcategory: "shorts"}
	if !topic.Resolved() {
		t.Error("topic should be resolved")
	}
	if topic.Word() != "shorts" {
		t.Errorf("Word() = %q, want shorts", topic.Word())
	}
}
