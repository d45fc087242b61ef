package forms

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/pkg/storage"
	"github.com/shashiranjanraj/shopdesk/pkg/validate"
)

func disks(t *testing.T) (*storage.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m := &storage.Manager{}
	m.Register("local", storage.NewLocal(dir))
	return m, dir
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	m, _ := disks(t)

	_, err := Build(context.Background(), m, models.StaffInput{UserName: "al", Email: "nope", Role: "owner"})
	require.Error(t, err)

	var fe validate.Errors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "user_name")
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "role")
	assert.NotContains(t, fe, "password", "empty nullable field is skipped")
}

func TestBuildJSONPayload(t *testing.T) {
	m, _ := disks(t)

	p, err := Build(context.Background(), m, models.RepairRequestInput{
		Device:   models.DeviceInput{Brand: "Apple", Model: "iPhone 13"},
		Services: []string{"s1"},
	})
	require.NoError(t, err)
	assert.False(t, p.Multipart())
	assert.Equal(t, []any{"s1"}, p.Fields["services"])
	assert.Equal(t, "Apple", p.Fields["device"].(map[string]any)["brand"])
}

func TestBuildNestedValidation(t *testing.T) {
	_, err := Build(context.Background(), nil, models.RepairRequestInput{Services: []string{"s1"}})

	var fe validate.Errors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "device.brand")
}

func TestBuildAttachesFiles(t *testing.T) {
	m, dir := disks(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phones.png"), []byte("png"), 0o644))

	active := true
	p, err := Build(context.Background(), m, models.CategoryInput{Name: "Phones", Status: &active, Image: "phones.png"})
	require.NoError(t, err)

	assert.True(t, p.Multipart())
	require.Len(t, p.Files, 1)
	assert.Equal(t, "image", p.Files[0].Field)
	assert.Equal(t, "phones.png", p.Files[0].Name)
	assert.Equal(t, "image/png", p.Files[0].ContentType)
	assert.Equal(t, []byte("png"), p.Files[0].Content)
	assert.Equal(t, true, p.Fields["status"])
	assert.NotContains(t, p.Fields, "image")
}

func TestBuildDropsNilOptionals(t *testing.T) {
	p, err := Build(context.Background(), nil, models.CategoryInput{Name: "Phones"})
	require.NoError(t, err)
	assert.NotContains(t, p.Fields, "status")
	assert.Equal(t, "Phones", p.Fields["name"])
}

func TestBuildMissingAttachment(t *testing.T) {
	m, _ := disks(t)
	_, err := Build(context.Background(), m, models.AboutInput{StoreName: "Shop", Logo: "s3://brand/logo.png"})
	assert.ErrorIs(t, err, storage.ErrNoDisk)
}

func TestStatus(t *testing.T) {
	p, err := Status(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, "shipped", p.Fields["status"])

	_, err = Status("")
	assert.Error(t, err)
}
