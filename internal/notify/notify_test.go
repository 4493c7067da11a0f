package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvasen/sophamtning-ale/internal/store"
)

func TestPermissionsDefault(t *testing.T) {
	p := NewPermissions(store.NewMemory())

	state, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionDefault, state)
}

func TestPermissionsSetGet(t *testing.T) {
	ctx := context.Background()
	p := NewPermissions(store.NewMemory())

	require.NoError(t, p.Set(ctx, PermissionGranted))
	state, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, state)

	require.NoError(t, p.Set(ctx, PermissionDenied))
	state, err = p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, state)

	assert.ErrorIs(t, p.Set(ctx, "maybe"), ErrInvalidPermission)
}

func TestPushoverSend(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"token":   r.PostFormValue("token"),
			"user":    r.PostFormValue("user"),
			"title":   r.PostFormValue("title"),
			"message": r.PostFormValue("message"),
			"url":     r.PostFormValue("url"),
		}
	}))
	defer srv.Close()

	c := NewPushover("app-token", "user-key")
	c.APIURL = srv.URL

	err := c.Send(context.Background(), Notification{
		Title: "Sophämtning imorgon",
		Body:  "Glöm inte att ställa ut soporna!",
		Tag:   "reminder-2025-06-03",
		URL:   "/",
	})
	require.NoError(t, err)

	assert.Equal(t, "app-token", gotForm["token"])
	assert.Equal(t, "user-key", gotForm["user"])
	assert.Equal(t, "Sophämtning imorgon", gotForm["title"])
	assert.Equal(t, "Glöm inte att ställa ut soporna!", gotForm["message"])
	assert.Equal(t, "/", gotForm["url"])
}

func TestPushoverSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["application token is invalid"]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewPushover("bad", "bad")
	c.APIURL = srv.URL

	err := c.Send(context.Background(), Notification{Title: "x"})
	assert.Error(t, err)
}
