// Package catalog holds the static model, pose and scene lists the
// generation flow picks from. The data ships with the binary; there is
// nothing to fetch or cache.
package catalog

type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	AgeRange string `json:"ageRange"`
	BodyType string `json:"bodyType"`
	SkinTone string `json:"skinTone"`
}

type Pose struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Scene struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var models = []Model{
	{ID: "model1", Name: "Priya", Gender: "female", AgeRange: "18-25", BodyType: "slim", SkinTone: "medium"},
	{ID: "model2", Name: "Anjali", Gender: "female", AgeRange: "25-35", BodyType: "average", SkinTone: "fair"},
	{ID: "model3", Name: "Kavita", Gender: "female", AgeRange: "35+", BodyType: "plus", SkinTone: "dark"},
	{ID: "model4", Name: "Rahul", Gender: "male", AgeRange: "18-25", BodyType: "slim", SkinTone: "medium"},
	{ID: "model5", Name: "Amit", Gender: "male", AgeRange: "25-35", BodyType: "average", SkinTone: "fair"},
	{ID: "model6", Name: "Raj", Gender: "male", AgeRange: "35+", BodyType: "plus", SkinTone: "dark"},
}

var poses = []Pose{
	{ID: "standing", Name: "Standing"},
	{ID: "walking", Name: "Walking"},
	{ID: "sitting", Name: "Sitting"},
	{ID: "action", Name: "Action"},
}

var scenes = []Scene{
	{ID: "studio", Name: "Studio"},
	{ID: "street", Name: "Street"},
	{ID: "cafe", Name: "Cafe"},
	{ID: "nature", Name: "Nature"},
}

func Models() []Model { return models }
func Poses() []Pose   { return poses }
func Scenes() []Scene { return scenes }

func FindModel(id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

func FindPose(id string) (Pose, bool) {
	for _, p := range poses {
		if p.ID == id {
			return p, true
		}
	}
	return Pose{}, false
}

func FindScene(id string) (Scene, bool) {
	for _, s := range scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}
