package zuper

import (
	"encoding/json"
	"strings"
)

// Category is the normalized job category. The provider sends categories
// either as a plain string (name or UID) or as an object; both are decoded
// into this type so nothing downstream branches on shape.
type Category string

const (
	CategoryUnknown      Category = ""
	CategorySurvey       Category = "survey"
	CategoryInstallation Category = "installation"
	CategoryInspection   Category = "inspection"
)

// CategoryRef is the provider's name/UID pair for a category.
type CategoryRef struct {
	Name string
	UID  string
}

var categoryRefs = map[Category]CategoryRef{
	CategorySurvey:       {Name: "Site Survey", UID: "002bac33-84d3-4083-a35d-50626fc49288"},
	CategoryInstallation: {Name: "Construction", UID: "6ffbc218-6dad-4a46-b378-1fb02b3ab4bf"},
	CategoryInspection:   {Name: "Inspection", UID: "b7dc03d2-25d0-40df-a2fc-b1a477b16b65"},
}

// Ref returns the provider name/UID pair for c.
func (c Category) Ref() (CategoryRef, bool) {
	ref, ok := categoryRefs[c]
	return ref, ok
}

// CategoryFromRef maps a provider name and/or UID onto a Category.
func CategoryFromRef(name, uid string) Category {
	name = strings.TrimSpace(name)
	uid = strings.TrimSpace(uid)
	for cat, ref := range categoryRefs {
		if uid != "" && strings.EqualFold(uid, ref.UID) {
			return cat
		}
	}
	for cat, ref := range categoryRefs {
		if name != "" && strings.EqualFold(name, ref.Name) {
			return cat
		}
	}
	return CategoryUnknown
}

type categoryObject struct {
	CategoryName string `json:"category_name"`
	CategoryUID  string `json:"category_uid"`
	Name         string `json:"name"`
	UID          string `json:"uid"`
}

// UnmarshalJSON accepts a string (name or UID) or a structured object.
func (c *Category) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = CategoryUnknown
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = CategoryFromRef(text, text)
		return nil
	}

	var obj categoryObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	name := obj.CategoryName
	if name == "" {
		name = obj.Name
	}
	uid := obj.CategoryUID
	if uid == "" {
		uid = obj.UID
	}
	*c = CategoryFromRef(name, uid)
	return nil
}
