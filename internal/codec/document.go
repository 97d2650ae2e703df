// Package codec converts the aggregate to and from its durable JSON form.
//
// The canonical document looks like:
//
//	{
//	  "schemaVersion": 1,
//	  "recipes": [{"id", "title", "images", "prepTime", "ingredients",
//	               "instructions", "notes", "categoryIds", "authorId",
//	               "ratings", "createdAt"}],
//	  "users": [{"id", "name", "avatar", "favorites"}],
//	  "categories": [{"id", "name"}],
//	  "currentUserId": "..."   (local documents only)
//	}
//
// Documents written before versioning (schema version 0) are upgraded on
// decode, see migrate.go.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"btmad/internal/model"
)

// SchemaVersion is the version written by Encode.
const SchemaVersion = 1

var (
	// ErrMalformed is wrapped when a document is not valid JSON or does not
	// have the expected shape.
	ErrMalformed = errors.New("malformed document")

	// ErrUnsupportedVersion is returned for documents newer than this binary.
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

type document struct {
	SchemaVersion int          `json:"schemaVersion"`
	Recipes       []recipeV1   `json:"recipes"`
	Users         []userV1     `json:"users"`
	Categories    []categoryV1 `json:"categories"`
	CurrentUserID string       `json:"currentUserId,omitempty"`
}

type recipeV1 struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Images       []string       `json:"images"`
	PrepTime     int            `json:"prepTime"`
	Ingredients  []ingredientV1 `json:"ingredients"`
	Instructions string         `json:"instructions"`
	Notes        string         `json:"notes,omitempty"`
	CategoryIDs  []string       `json:"categoryIds"`
	AuthorID     string         `json:"authorId"`
	Ratings      []ratingV1     `json:"ratings"`
	CreatedAt    *time.Time     `json:"createdAt,omitempty"`
}

type ingredientV1 struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}

type ratingV1 struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

type userV1 struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Favorites []string `json:"favorites"`
}

type categoryV1 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EncodeBundle serializes the persisted aggregate without selection state.
func EncodeBundle(b model.Bundle) ([]byte, error) {
	return encode(toDocument(b, ""))
}

// EncodeState serializes the aggregate including the selected user.
func EncodeState(s model.State) ([]byte, error) {
	return encode(toDocument(s.Bundle, s.CurrentUserID))
}

// Decode parses a document of any supported version. The returned state is
// normalized; CurrentUserID is empty for documents that do not carry one.
func Decode(data []byte) (model.State, error) {
	doc, err := upgrade(data)
	if err != nil {
		return model.State{}, err
	}
	return fromDocument(doc), nil
}

func encode(doc document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}

func toDocument(b model.Bundle, currentUserID string) document {
	b = b.Normalize()
	doc := document{
		SchemaVersion: SchemaVersion,
		Recipes:       make([]recipeV1, len(b.Recipes)),
		Users:         make([]userV1, len(b.Users)),
		Categories:    make([]categoryV1, len(b.Categories)),
		CurrentUserID: currentUserID,
	}
	for i, r := range b.Recipes {
		rr := recipeV1{
			ID:           r.ID,
			Title:        r.Title,
			Images:       r.Images,
			PrepTime:     r.PrepTime,
			Ingredients:  make([]ingredientV1, len(r.Ingredients)),
			Instructions: r.Instructions,
			Notes:        r.Notes,
			CategoryIDs:  r.CategoryIDs,
			AuthorID:     r.AuthorID,
			Ratings:      make([]ratingV1, len(r.Ratings)),
		}
		if !r.CreatedAt.IsZero() {
			createdAt := r.CreatedAt.UTC()
			rr.CreatedAt = &createdAt
		}
		for j, ing := range r.Ingredients {
			rr.Ingredients[j] = ingredientV1{ID: ing.ID, Name: ing.Name, Amount: ing.Amount}
		}
		for j, rt := range r.Ratings {
			rr.Ratings[j] = ratingV1{UserID: rt.UserID, Score: rt.Score}
		}
		doc.Recipes[i] = rr
	}
	for i, u := range b.Users {
		doc.Users[i] = userV1{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Favorites: u.Favorites}
	}
	for i, c := range b.Categories {
		doc.Categories[i] = categoryV1{ID: c.ID, Name: c.Name}
	}
	return doc
}

func fromDocument(doc document) model.State {
	b := model.Bundle{
		Recipes:    make([]model.Recipe, len(doc.Recipes)),
		Users:      make([]model.User, len(doc.Users)),
		Categories: make([]model.Category, len(doc.Categories)),
	}
	for i, rr := range doc.Recipes {
		r := model.Recipe{
			ID:           rr.ID,
			Title:        rr.Title,
			Images:       rr.Images,
			PrepTime:     rr.PrepTime,
			Ingredients:  make([]model.Ingredient, len(rr.Ingredients)),
			Instructions: rr.Instructions,
			Notes:        rr.Notes,
			CategoryIDs:  rr.CategoryIDs,
			AuthorID:     rr.AuthorID,
			Ratings:      make([]model.Rating, len(rr.Ratings)),
		}
		if rr.CreatedAt != nil {
			r.CreatedAt = rr.CreatedAt.UTC()
		}
		for j, ing := range rr.Ingredients {
			r.Ingredients[j] = model.Ingredient{ID: ing.ID, Name: ing.Name, Amount: ing.Amount}
		}
		for j, rt := range rr.Ratings {
			r.Ratings[j] = model.Rating{UserID: rt.UserID, Score: rt.Score}
		}
		b.Recipes[i] = r
	}
	for i, u := range doc.Users {
		b.Users[i] = model.User{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Favorites: u.Favorites}
	}
	for i, c := range doc.Categories {
		b.Categories[i] = model.Category{ID: c.ID, Name: c.Name}
	}
	return model.State{Bundle: b.Normalize(), CurrentUserID: doc.CurrentUserID}
}
