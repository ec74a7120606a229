package model

// Behavior is a template point delta applicable to a student. It is not
// persisted per event.
type Behavior struct {
	Label   string `json:"label"`
	LabelEn string `json:"labelEn"`
	Points  int    `json:"points"`
}

// IsPositive reports whether the behavior counts as positive. Zero is not.
func (b Behavior) IsPositive() bool {
	return b.Points > 0
}

// ManualBehavior wraps an ad-hoc point entry in the manual-entry labels.
func ManualBehavior(points int) Behavior {
	return Behavior{Label: "手動輸入分數", LabelEn: "Manual Point Entry", Points: points}
}

var PositiveBehaviors = []Behavior{
	{Label: "積極參與", LabelEn: "good participation", Points: 1},
	{Label: "專心上課", LabelEn: "well focused", Points: 1},
	{Label: "安靜閱讀", LabelEn: "quiet reading", Points: 1},
	{Label: "安靜吃飯", LabelEn: "quiet eating", Points: 1},
	{Label: "配合做課間操", LabelEn: "participating in exercises", Points: 1},
	{Label: "尊重容老師！", LabelEn: "respect miss iong!", Points: 3},
	{Label: "你簡直太棒了🥳👍！", LabelEn: "you are simply amazing 🥳👍!", Points: 10},
}

var NegativeBehaviors = []Behavior{
	{Label: "態度欠佳", LabelEn: "bad attitude", Points: -1},
	{Label: "過於吵鬧", LabelEn: "noisy", Points: -1},
	{Label: "離開座位", LabelEn: "leaving seat", Points: -1},
	{Label: "不專心", LabelEn: "not paying attention", Points: -1},
	{Label: "課上聊天", LabelEn: "chatting in class", Points: -1},
	{Label: "對容老師無禮", LabelEn: "disrespectful to miss iong", Points: -3},
	{Label: "你太過分/離譜了😡！", LabelEn: "you have gone too far 😡!", Points: -10},
}

// BehaviorCatalog groups the fixed templates for the selection view.
type BehaviorCatalog struct {
	Positive []Behavior `json:"positive"`
	Negative []Behavior `json:"negative"`
}

// Catalog returns the fixed behavior templates.
func Catalog() BehaviorCatalog {
	return BehaviorCatalog{Positive: PositiveBehaviors, Negative: NegativeBehaviors}
}
