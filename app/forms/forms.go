// Package forms turns validated form inputs into request payloads.
//
// Validation runs before anything is dispatched: an invalid input comes back
// as validate.Errors keyed by JSON field name, and no request is made.
// Attachment references are read through storage and sent as multipart
// files.
//
//	p, err := forms.Build(ctx, disks, models.CategoryInput{Name: "Phones", Image: "./phones.png"})
//	var fe validate.Errors
//	if errors.As(err, &fe) {
//	    // show fe["name"] next to the field
//	}
package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/storage"
	"github.com/shashiranjanraj/shopdesk/pkg/validate"
)

// Attachment is a file field of a form.
type Attachment struct {
	Field string
	Ref   string
}

// Validate checks input against its validate tags.
func Validate(input any) error {
	if errs := validate.Struct(input); errs != nil {
		return errs
	}
	return nil
}

// Build validates input and converts it into a payload. The attachments of
// the known input types are picked up automatically; extra ones can be
// passed in.
func Build(ctx context.Context, disks *storage.Manager, input any, extra ...Attachment) (api.Payload, error) {
	if err := Validate(input); err != nil {
		return api.Payload{}, err
	}

	fields, err := toFields(input)
	if err != nil {
		return api.Payload{}, err
	}
	p := api.Payload{Fields: fields}

	for _, a := range append(attachmentsOf(input), extra...) {
		if strings.TrimSpace(a.Ref) == "" {
			continue
		}
		if disks == nil {
			return api.Payload{}, fmt.Errorf("forms: %s: %w", a.Field, storage.ErrNoDisk)
		}
		content, err := disks.Read(ctx, a.Ref)
		if err != nil {
			return api.Payload{}, fmt.Errorf("forms: %s: %w", a.Field, err)
		}
		name := path.Base(a.Ref)
		p.Files = append(p.Files, api.File{
			Field:       a.Field,
			Name:        name,
			ContentType: mime.TypeByExtension(path.Ext(name)),
			Content:     content,
		})
	}
	return p, nil
}

// Status builds the payload of a status change.
func Status(status string) (api.Payload, error) {
	in := models.StatusInput{Status: strings.TrimSpace(status)}
	if err := Validate(in); err != nil {
		return api.Payload{}, err
	}
	return api.Fields(map[string]any{"status": in.Status}), nil
}

func attachmentsOf(input any) []Attachment {
	switch in := input.(type) {
	case models.CategoryInput:
		return []Attachment{{Field: "image", Ref: in.Image}}
	case *models.CategoryInput:
		return attachmentsOf(*in)
	case models.NewsInput:
		return []Attachment{{Field: "image", Ref: in.Image}}
	case *models.NewsInput:
		return attachmentsOf(*in)
	case models.AboutInput:
		return []Attachment{{Field: "logo", Ref: in.Logo}}
	case *models.AboutInput:
		return attachmentsOf(*in)
	case models.ProductInput:
		out := make([]Attachment, len(in.Images))
		for i, ref := range in.Images {
			out[i] = Attachment{Field: "images", Ref: ref}
		}
		return out
	case *models.ProductInput:
		return attachmentsOf(*in)
	}
	return nil
}

// toFields flattens input's JSON form into payload fields. Nil values are
// dropped so optional pointers stay unset.
func toFields(input any) (map[string]any, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("forms: encode input: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("forms: input must be an object: %w", err)
	}
	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	return fields, nil
}
