package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/autopark/internal/models"
	"github.com/iudanet/autopark/internal/server/storage"
	"github.com/iudanet/autopark/internal/validation"
	"github.com/iudanet/autopark/pkg/api"
)

// MaxPhotoSize ограничивает размер загружаемой фотографии профиля
const MaxPhotoSize = 5 << 20

// MaxNameLen is the longest accepted nom/prenom
const MaxNameLen = 100

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadConfig описывает, куда сохранять фотографии и как строить их URL
type UploadConfig struct {
	Dir       string // каталог на диске
	PublicURL string // внешний адрес сервера, без завершающего /
}

// UsersHandler обслуживает /auth/users/me
type UsersHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	uploads     UploadConfig
}

// NewUsersHandler создает handler профиля
func NewUsersHandler(logger *slog.Logger, userStorage storage.UserStorage, uploads UploadConfig) *UsersHandler {
	uploads.PublicURL = strings.TrimRight(uploads.PublicURL, "/")
	return &UsersHandler{
		logger:      logger,
		userStorage: userStorage,
		uploads:     uploads,
	}
}

// GetMe обрабатывает GET /auth/users/me
func (h *UsersHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	SendJSON(w, h.logger, toAPIUser(user), http.StatusOK)
}

// UpdateMe обрабатывает PUT /auth/users/me.
// Принимает JSON UpdateUserRequest или multipart форму с полями профиля и файлом photo.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var (
		req   api.UpdateUserRequest
		photo string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		req, photo, err = h.parseMultipart(w, r, user.ID)
		if err != nil {
			SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, err.Error())
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode update request", slog.Any("error", err))
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "invalid request body")
		return
	}

	if req.Nom == nil && req.Prenom == nil && req.Telephone == nil && photo == "" {
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "nothing to update")
		return
	}
	if err := applyUpdate(user, req); err != nil {
		h.removeUpload(photo)
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	previousPhoto := user.PhotoURL
	if photo != "" {
		user.PhotoURL = h.uploads.PublicURL + "/uploads/" + photo
	}

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		h.removeUpload(photo)
		internalError(w, r, h.logger, "failed to update user", err)
		return
	}

	if photo != "" && previousPhoto != user.PhotoURL {
		h.removeUpload(h.ownUpload(previousPhoto))
	}

	h.logger.InfoContext(ctx, "profile updated",
		slog.String("user_id", user.ID),
		slog.Bool("photo", photo != ""))

	SendJSON(w, h.logger, toAPIUser(user), http.StatusOK)
}

func (h *UsersHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return nil, false
	}

	user, err := h.userStorage.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// токен пережил пользователя
			SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "user not found")
			return nil, false
		}
		internalError(w, r, h.logger, "failed to get user", err)
		return nil, false
	}
	return user, true
}

// parseMultipart читает поля формы и сохраняет фото, возвращает имя файла в uploads
func (h *UsersHandler) parseMultipart(w http.ResponseWriter, r *http.Request, userID string) (api.UpdateUserRequest, string, error) {
	var req api.UpdateUserRequest

	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return req, "", fmt.Errorf("invalid multipart form: %w", err)
	}

	field := func(name string) *string {
		if values, ok := r.MultipartForm.Value[name]; ok && len(values) > 0 {
			v := values[0]
			return &v
		}
		return nil
	}
	req.Nom = field("nom")
	req.Prenom = field("prenom")
	req.Telephone = field("telephone")

	file, header, err := r.FormFile(api.PhotoField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, "", nil
	}
	if err != nil {
		return req, "", fmt.Errorf("invalid photo: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if header.Size > MaxPhotoSize {
		return req, "", fmt.Errorf("photo must be at most %d bytes", MaxPhotoSize)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !photoExtensions[ext] {
		return req, "", fmt.Errorf("unsupported photo type %q", ext)
	}

	name := userID + "-" + uuid.New().String() + ext
	if err := h.saveUpload(name, file); err != nil {
		return req, "", err
	}
	return req, name, nil
}

func (h *UsersHandler) saveUpload(name string, src io.Reader) error {
	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(h.uploads.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create photo file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		h.removeUpload(name)
		return fmt.Errorf("failed to write photo: %w", err)
	}
	return dst.Close()
}

// ownUpload возвращает имя файла, если url указывает на наш каталог uploads
func (h *UsersHandler) ownUpload(url string) string {
	prefix := h.uploads.PublicURL + "/uploads/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return filepath.Base(strings.TrimPrefix(url, prefix))
}

func (h *UsersHandler) removeUpload(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(h.uploads.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("failed to remove photo", slog.String("file", name), slog.Any("error", err))
	}
}

func applyUpdate(user *models.User, req api.UpdateUserRequest) error {
	if req.Nom != nil {
		nom := strings.TrimSpace(*req.Nom)
		if len(nom) > MaxNameLen {
			return fmt.Errorf("nom must be at most %d characters", MaxNameLen)
		}
		user.Nom = nom
	}
	if req.Prenom != nil {
		prenom := strings.TrimSpace(*req.Prenom)
		if len(prenom) > MaxNameLen {
			return fmt.Errorf("prenom must be at most %d characters", MaxNameLen)
		}
		user.Prenom = prenom
	}
	if req.Telephone != nil {
		phone := strings.TrimSpace(*req.Telephone)
		if err := validation.ValidatePhone(phone); err != nil {
			return err
		}
		user.Telephone = phone
	}
	return nil
}
