package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/auth"
	"github.com/iudanet/autopark/internal/client/session"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// fakeServer эмулирует /auth/users/me и /auth/refresh
type fakeServer struct {
	user        pkgapi.User
	validToken  string
	uploadFails bool
	photos      [][]byte
	refreshes   int
	mu          sync.Mutex
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.refreshes++
		f.validToken = "a2"
		_ = json.NewEncoder(w).Encode(pkgapi.TokenResponse{AccessToken: "a2", RefreshToken: "b2"})
	})
	mux.HandleFunc(api.PathMe, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"token expired","code":"token_expired"}`))
			return
		}

		switch r.Method {
		case http.MethodGet:
		case http.MethodPut:
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				if f.uploadFails {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					_, _ = w.Write([]byte(`{"error":"Request Entity Too Large","message":"photo too large"}`))
					return
				}
				file, _, err := r.FormFile(pkgapi.PhotoField)
				if !assert.NoError(t, err) {
					return
				}
				content, _ := io.ReadAll(file)
				f.photos = append(f.photos, content)
				f.user.PhotoURL = "https://cdn.example.com/u1.png"
				break
			}
			var req pkgapi.UpdateUserRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Nom != nil {
				f.user.Nom = *req.Nom
			}
			if req.Telephone != nil {
				f.user.Telephone = *req.Telephone
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(f.user)
	})
	return mux
}

func newTestService(t *testing.T, fake *fakeServer, access string) (*Service, *session.Store) {
	t.Helper()

	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL)
	store := session.NewStore()
	require.NoError(t, store.Set(context.Background(), session.Credentials{AccessToken: access, RefreshToken: "b1"}))

	return NewService(client, auth.NewRefresher(client, store), nil), store
}

func TestService_Me(t *testing.T) {
	fake := &fakeServer{
		validToken: "a1",
		user:       pkgapi.User{ID: "u1", Nom: "Ndiaye", PhotoURL: "https://cdn.example.com/old.png"},
	}
	service, _ := newTestService(t, fake, "a1")

	user, err := service.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ndiaye", user.Nom)
	assert.Equal(t, "https://cdn.example.com/old.png", service.Avatar().Get())
	assert.Equal(t, 0, fake.refreshes)
}

func TestService_Update_AfterExpiry(t *testing.T) {
	fake := &fakeServer{validToken: "a-never", user: pkgapi.User{ID: "u1", Nom: "Ndiaye"}}
	service, store := newTestService(t, fake, "a1")

	nom := "Diallo"
	user, err := service.Update(context.Background(), pkgapi.UpdateUserRequest{Nom: &nom})
	require.NoError(t, err)
	assert.Equal(t, "Diallo", user.Nom)
	assert.Equal(t, 1, fake.refreshes)

	creds, _ := store.Credentials()
	assert.Equal(t, "a2", creds.AccessToken)
}

func TestService_Update_Validation(t *testing.T) {
	service, _ := newTestService(t, &fakeServer{validToken: "a1"}, "a1")

	_, err := service.Update(context.Background(), pkgapi.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	phone := "call me"
	_, err = service.Update(context.Background(), pkgapi.UpdateUserRequest{Telephone: &phone})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telephone")
}

func TestService_UploadPhoto(t *testing.T) {
	photo := []byte("\x89PNG\r\n\x1a\nimage")
	fake := &fakeServer{validToken: "a-never", user: pkgapi.User{ID: "u1"}}
	service, _ := newTestService(t, fake, "a1")

	var shown []string
	service.Avatar().OnChange(func(url string) { shown = append(shown, url) })

	user, err := service.UploadPhoto(context.Background(), "/tmp/me.png", bytes.NewReader(photo))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/u1.png", user.PhotoURL)

	// multipart тело отправлено повторно после refresh
	assert.Equal(t, 1, fake.refreshes)
	require.Len(t, fake.photos, 1)
	assert.Equal(t, photo, fake.photos[0])

	assert.Equal(t, []string{"file:///tmp/me.png", "https://cdn.example.com/u1.png"}, shown)
	assert.Equal(t, "https://cdn.example.com/u1.png", service.Avatar().Get())
	assert.False(t, service.Avatar().IsPending())
}

func TestService_UploadPhoto_FailureRollsBack(t *testing.T) {
	fake := &fakeServer{validToken: "a1", uploadFails: true, user: pkgapi.User{ID: "u1"}}
	service, _ := newTestService(t, fake, "a1")
	service.Avatar().Set("https://cdn.example.com/old.png")

	_, err := service.UploadPhoto(context.Background(), "/tmp/me.png", strings.NewReader("image"))
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, api.StatusOf(err))

	assert.Equal(t, "https://cdn.example.com/old.png", service.Avatar().Get())
	assert.False(t, service.Avatar().IsPending())
}

func TestService_UploadPhoto_InvalidInput(t *testing.T) {
	service, _ := newTestService(t, &fakeServer{validToken: "a1"}, "a1")

	_, err := service.UploadPhoto(context.Background(), "empty.png", strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "photo is empty")

	big := bytes.NewReader(make([]byte, MaxPhotoSize+1))
	_, err = service.UploadPhoto(context.Background(), "big.png", big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
	assert.Equal(t, "", service.Avatar().Get())
}

func TestPreviewURL(t *testing.T) {
	assert.Equal(t, "file:///tmp/a.png", previewURL("/tmp/a.png"))
	assert.Equal(t, "content://media/42", previewURL("content://media/42"))
}
