package codec

import (
	"encoding/json"
	"fmt"
	"time"
)

// upgrade decodes data and brings it to the current schema version.
//
// Version 0 covers every unversioned document. Two field-naming schemes were
// written without a version marker; upgradeV0 maps both onto version 1.
func upgrade(data []byte) (document, error) {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch probe.SchemaVersion {
	case 0:
		return upgradeV0(data)
	case SchemaVersion:
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return doc, nil
	default:
		return document{}, fmt.Errorf("%w: %d (newest supported is %d)", ErrUnsupportedVersion, probe.SchemaVersion, SchemaVersion)
	}
}

// v0 documents carry either the current names or the older aliases.
type recipeV0 struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Images            []string       `json:"images"`
	ImageURLs         []string       `json:"imageUrls"`
	PrepTime          *int           `json:"prepTime"`
	PrepTimeInMinutes *int           `json:"prepTimeInMinutes"`
	Ingredients       []ingredientV1 `json:"ingredients"`
	Instructions      string         `json:"instructions"`
	Notes             string         `json:"notes"`
	CategoryIDs       []string       `json:"categoryIds"`
	Categories        []string       `json:"categories"`
	AuthorID          string         `json:"authorId"`
	Ratings           []ratingV1     `json:"ratings"`
	CreatedAt         *time.Time     `json:"createdAt"`
}

type userV0 struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Avatar            string   `json:"avatar"`
	ImageURL          string   `json:"imageUrl"`
	Favorites         []string `json:"favorites"`
	FavoriteRecipeIDs []string `json:"favoriteRecipeIds"`
}

type documentV0 struct {
	Recipes     []recipeV0   `json:"recipes"`
	Users       []userV0     `json:"users"`
	Categories  []categoryV1 `json:"categories"`
	CurrentUser *struct {
		ID string `json:"id"`
	} `json:"currentUser"`
}

func upgradeV0(data []byte) (document, error) {
	var old documentV0
	if err := json.Unmarshal(data, &old); err != nil {
		return document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	doc := document{
		SchemaVersion: SchemaVersion,
		Recipes:       make([]recipeV1, len(old.Recipes)),
		Users:         make([]userV1, len(old.Users)),
		Categories:    old.Categories,
	}
	if old.CurrentUser != nil {
		doc.CurrentUserID = old.CurrentUser.ID
	}

	for i, r := range old.Recipes {
		doc.Recipes[i] = recipeV1{
			ID:           r.ID,
			Title:        r.Title,
			Images:       firstNonNil(r.Images, r.ImageURLs),
			PrepTime:     firstInt(r.PrepTime, r.PrepTimeInMinutes),
			Ingredients:  r.Ingredients,
			Instructions: r.Instructions,
			Notes:        r.Notes,
			CategoryIDs:  firstNonNil(r.CategoryIDs, r.Categories),
			AuthorID:     r.AuthorID,
			Ratings:      r.Ratings,
			CreatedAt:    r.CreatedAt,
		}
	}
	for i, u := range old.Users {
		avatar := u.Avatar
		if avatar == "" {
			avatar = u.ImageURL
		}
		doc.Users[i] = userV1{
			ID:        u.ID,
			Name:      u.Name,
			Avatar:    avatar,
			Favorites: firstNonNil(u.Favorites, u.FavoriteRecipeIDs),
		}
	}
	return doc, nil
}

func firstNonNil(a, b []string) []string {
	if a != nil {
		return a
	}
	return b
}

func firstInt(a, b *int) int {
	switch {
	case a != nil:
		return *a
	case b != nil:
		return *b
	}
	return 0
}
