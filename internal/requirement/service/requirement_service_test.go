package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-req/internal/config"
	"github.com/bitfantasy/nimo-req/internal/requirement/entity"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAcme(t *testing.T, svc *Services) *entity.Requirement {
	t.Helper()
	req, err := svc.Requirement.Create(context.Background(), &CreateRequirementRequest{
		Customer: "Acme",
		Details:  "Need 500 units",
		Type:     "Bulk Purchase",
	})
	require.NoError(t, err)
	return req
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
}

func TestCreateRequirementDefaults(t *testing.T) {
	svc, pub, _ := setupServices(t, config.RequirementConfig{})

	req := createAcme(t, svc)
	assert.NotZero(t, req.ID)
	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Equal(t, "", req.Contact)
	assert.Empty(t, req.Images)
	assert.NotNil(t, req.Images)
	assert.Empty(t, req.Videos)
	assert.Empty(t, req.Comments)
	assert.True(t, req.CreatedAt.Equal(req.UpdatedAt))
	assert.Nil(t, req.LastCommentAt)

	stored, err := svc.Requirement.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Customer)
	assert.Equal(t, "Need 500 units", stored.Details)
	assert.True(t, stored.CreatedAt.Equal(stored.UpdatedAt))
	assert.Nil(t, stored.LastCommentAt)
	assert.NotNil(t, stored.Comments)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, sse.EventRequirementUpdate, events[0].EventType)
	assert.Contains(t, events[0].Data, `"action":"created"`)
}

func TestCreateRequirementKeepsOptionalFields(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})

	req, err := svc.Requirement.Create(context.Background(), &CreateRequirementRequest{
		Customer: "Globex",
		Contact:  "555-0100",
		Details:  "Engraved mugs",
		Type:     "Custom Item",
		Status:   "In Progress",
		Images:   []string{"mug.png", " "},
		Videos:   []string{"demo.mp4"},
		Comments: []entity.Comment{{Text: "called customer"}},
	})
	require.NoError(t, err)

	stored, err := svc.Requirement.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "In Progress", stored.Status)
	assert.Equal(t, "555-0100", stored.Contact)
	assert.Equal(t, []string{"mug.png"}, []string(stored.Images))
	assert.Equal(t, []string{"demo.mp4"}, []string(stored.Videos))
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "called customer", stored.Comments[0].Text)
	assert.False(t, stored.Comments[0].Timestamp.IsZero())
	assert.Nil(t, stored.LastCommentAt)
}

func TestCreateRequirementValidation(t *testing.T) {
	svc, pub, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()

	cases := []CreateRequirementRequest{
		{Details: "d", Type: "t"},
		{Customer: "c", Type: "t"},
		{Customer: "c", Details: "d"},
		{Customer: "  ", Details: "d", Type: "t"},
		{Customer: "c", Details: "d", Type: "t", Comments: []entity.Comment{{}}},
	}
	for _, in := range cases {
		in := in
		_, err := svc.Requirement.Create(ctx, &in)
		assertValidation(t, err)
	}

	items, err := svc.Requirement.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, pub.Events())
}

func TestStrictTypesRejectsUnknownType(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{StrictTypes: true})
	ctx := context.Background()
	require.NoError(t, svc.Type.SeedDefaults(ctx))

	_, err := svc.Requirement.Create(ctx, &CreateRequirementRequest{Customer: "Acme", Details: "x", Type: "Teleport"})
	assertValidation(t, err)

	req := createAcme(t, svc)
	_, err = svc.Requirement.Update(ctx, req.ID, &UpdateRequirementRequest{Customer: "Acme", Details: "x", Type: "Teleport"})
	assertValidation(t, err)
}

func TestLooseTypesAcceptAnyType(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})

	req, err := svc.Requirement.Create(context.Background(), &CreateRequirementRequest{Customer: "Acme", Details: "x", Type: "Teleport"})
	require.NoError(t, err)
	assert.Equal(t, "Teleport", req.Type)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		req, err := svc.Requirement.Create(ctx, &CreateRequirementRequest{
			Customer: fmt.Sprintf("Customer %d", i),
			Details:  "details",
			Type:     "Price Quote",
		})
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	items, err := svc.Requirement.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{ids[2], ids[1], ids[0]}, []uint{items[0].ID, items[1].ID, items[2].ID})
}

func TestListBreaksTiesByID(t *testing.T) {
	svc, _, clock := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	fixed := clock.Now()
	svc.Requirement.clock = func() time.Time { return fixed }

	first := createAcme(t, svc)
	second := createAcme(t, svc)

	items, err := svc.Requirement.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	req := createAcme(t, svc)

	updated, err := svc.Requirement.UpdateStatus(ctx, req.ID, &UpdateStatusRequest{Status: "Awaiting Supplier"})
	require.NoError(t, err)
	assert.Equal(t, "Awaiting Supplier", updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.True(t, updated.CreatedAt.Equal(req.CreatedAt))
	assert.Nil(t, updated.LastCommentAt)
	assert.Empty(t, updated.Comments)

	// any status may follow any status
	updated, err = svc.Requirement.UpdateStatus(ctx, req.ID, &UpdateStatusRequest{Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, "Pending", updated.Status)

	_, err = svc.Requirement.UpdateStatus(ctx, req.ID, &UpdateStatusRequest{Status: " "})
	assertValidation(t, err)
}

func TestUpdateRequirementPreservesWorkflowFields(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()

	req, err := svc.Requirement.Create(ctx, &CreateRequirementRequest{
		Customer: "Acme",
		Details:  "Need 500 units",
		Type:     "Bulk Purchase",
		Images:   []string{"pallet.jpg"},
	})
	require.NoError(t, err)
	_, err = svc.Requirement.UpdateStatus(ctx, req.ID, &UpdateStatusRequest{Status: "Quoted"})
	require.NoError(t, err)
	commented, err := svc.Requirement.AddComment(ctx, req.ID, &AddCommentRequest{Text: "sent quote"})
	require.NoError(t, err)

	updated, err := svc.Requirement.Update(ctx, req.ID, &UpdateRequirementRequest{
		Customer: "Acme Corp",
		Contact:  "ops@acme.test",
		Details:  "Need 600 units",
		Type:     "Price Quote",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Customer)
	assert.Equal(t, "ops@acme.test", updated.Contact)
	assert.Equal(t, "Need 600 units", updated.Details)
	assert.Equal(t, "Price Quote", updated.Type)
	assert.Equal(t, "Quoted", updated.Status)
	assert.Equal(t, []string{"pallet.jpg"}, []string(updated.Images))
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "sent quote", updated.Comments[0].Text)
	require.NotNil(t, updated.LastCommentAt)
	assert.True(t, updated.LastCommentAt.Equal(*commented.LastCommentAt))
	assert.True(t, updated.UpdatedAt.After(*updated.LastCommentAt))
}

func TestMissingRequirementYieldsNotFound(t *testing.T) {
	svc, pub, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	const missing = 4242

	_, err := svc.Requirement.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Requirement.UpdateStatus(ctx, missing, &UpdateStatusRequest{Status: "Done"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Requirement.Update(ctx, missing, &UpdateRequirementRequest{Customer: "a", Details: "b", Type: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Requirement.AddComment(ctx, missing, &AddCommentRequest{Text: "hello"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Requirement.Delete(ctx, missing), ErrNotFound)

	items, err := svc.Requirement.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, pub.Events())
}

func TestDeleteRequirement(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	keep := createAcme(t, svc)
	gone := createAcme(t, svc)
	_, err := svc.Requirement.AddComment(ctx, gone.ID, &AddCommentRequest{Text: "soon deleted"})
	require.NoError(t, err)

	require.NoError(t, svc.Requirement.Delete(ctx, gone.ID))

	items, err := svc.Requirement.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	_, err = svc.Requirement.Update(ctx, gone.ID, &UpdateRequirementRequest{Customer: "a", Details: "b", Type: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Requirement.AddComment(ctx, gone.ID, &AddCommentRequest{Text: "late"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Requirement.Delete(ctx, gone.ID), ErrNotFound)
}

func TestAddCommentSequence(t *testing.T) {
	svc, pub, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	req := createAcme(t, svc)

	first, err := svc.Requirement.AddComment(ctx, req.ID, &AddCommentRequest{Text: "Shipped today"})
	require.NoError(t, err)
	require.Len(t, first.Comments, 1)
	require.NotNil(t, first.LastCommentAt)
	assert.True(t, first.LastCommentAt.Equal(first.Comments[0].Timestamp))
	assert.True(t, first.UpdatedAt.Equal(*first.LastCommentAt))

	second, err := svc.Requirement.AddComment(ctx, req.ID, &AddCommentRequest{Images: []string{"img1.png"}, Videos: []string{}})
	require.NoError(t, err)
	require.Len(t, second.Comments, 2)
	assert.Equal(t, "Shipped today", second.Comments[0].Text)
	assert.Equal(t, "", second.Comments[1].Text)
	assert.Equal(t, []string{"img1.png"}, second.Comments[1].Images)
	assert.Equal(t, []string{}, second.Comments[1].Videos)
	assert.True(t, second.Comments[0].Timestamp.Equal(first.Comments[0].Timestamp))
	assert.True(t, second.Comments[1].Timestamp.After(second.Comments[0].Timestamp))
	require.NotNil(t, second.LastCommentAt)
	assert.True(t, second.LastCommentAt.Equal(second.Comments[1].Timestamp))
	assert.True(t, second.UpdatedAt.Equal(*second.LastCommentAt))
	assert.True(t, second.CreatedAt.Equal(req.CreatedAt))

	events := pub.Events()
	require.Len(t, events, 3)
	assert.Contains(t, events[2].Data, `"action":"commented"`)
}

func TestAddCommentRequiresContent(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	req := createAcme(t, svc)

	_, err := svc.Requirement.AddComment(ctx, req.ID, &AddCommentRequest{Text: "", Images: []string{}, Videos: []string{}})
	assertValidation(t, err)
	assert.EqualError(t, err, "Comment text or media is required")

	stored, err := svc.Requirement.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
	assert.Nil(t, stored.LastCommentAt)
	assert.True(t, stored.UpdatedAt.Equal(req.UpdatedAt))
}

func TestConcurrentAppendsKeepEveryComment(t *testing.T) {
	svc, _, _ := setupServices(t, config.RequirementConfig{})
	ctx := context.Background()
	req := createAcme(t, svc)

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Requirement.AddComment(ctx, req.ID, &AddCommentRequest{Text: fmt.Sprintf("note %d", n)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := svc.Requirement.Get(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, writers)

	seen := make(map[string]bool, writers)
	for _, c := range stored.Comments {
		seen[c.Text] = true
	}
	assert.Len(t, seen, writers)
}
