package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoTrueProvider consumes a managed GoTrue-compatible auth API. Credentials
// never touch the local database; only the profile row in users is kept here.
type GoTrueProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGoTrueProvider(baseURL, apiKey string, client *http.Client) *GoTrueProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &GoTrueProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type goTrueUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

type goTrueSession struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int         `json:"expires_in"`
	User        *goTrueUser `json:"user"`

	// Present instead of a session when email confirmation is pending.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type goTrueError struct {
	Status  int
	Message string
}

func (e *goTrueError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Status, e.Message)
}

func (p *GoTrueProvider) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	body := map[string]interface{}{
		"email":    NormalizeEmail(in.Email),
		"password": in.Password,
		"data":     map[string]string{"name": in.Name},
	}

	var resp goTrueSession
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, mapGoTrueError(err)
	}

	gtUser := resp.User
	if gtUser == nil {
		gtUser = &goTrueUser{ID: resp.ID, Email: resp.Email}
	}

	user, err := p.syncProfile(ctx, gtUser, in.Name)
	if err != nil {
		return nil, err
	}

	return p.session(resp, user), nil
}

func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    NormalizeEmail(email),
		"password": password,
	}

	var resp goTrueSession
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, mapGoTrueError(err)
	}

	if resp.User == nil {
		return nil, errors.New("auth api: token response without user")
	}

	name, _ := resp.User.UserMetadata["name"].(string)
	user, err := p.syncProfile(ctx, resp.User, name)
	if err != nil {
		return nil, err
	}

	return p.session(resp, user), nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (p *GoTrueProvider) VerifyPassword(ctx context.Context, user *models.User, password string) error {
	_, err := p.SignIn(ctx, user.Email, password)
	return err
}

func (p *GoTrueProvider) ChangePassword(ctx context.Context, accessToken string, user *models.User, newPassword string) error {
	if len(MissingPasswordRequirements(newPassword)) > 0 {
		return ErrWeakPassword
	}

	body := map[string]string{"password": newPassword}
	return mapGoTrueError(p.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, body, nil))
}

// syncProfile makes sure the users table mirrors the auth user.
func (p *GoTrueProvider) syncProfile(ctx context.Context, gtUser *goTrueUser, name string) (models.User, error) {
	id, err := uuid.Parse(gtUser.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("auth api returned invalid user id %q: %w", gtUser.ID, err)
	}

	user := models.User{
		BaseModel: models.BaseModel{ID: id},
		Email:     NormalizeEmail(gtUser.Email),
		Name:      name,
	}

	err = db.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
	if err != nil {
		return models.User{}, fmt.Errorf("failed to store user profile: %w", err)
	}

	if err := db.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("user profile %s missing after insert", id)
		}
		return models.User{}, err
	}

	return user, nil
}

func (p *GoTrueProvider) session(resp goTrueSession, user models.User) *Session {
	s := &Session{AccessToken: resp.AccessToken, User: user}
	if resp.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return s
}

func (p *GoTrueProvider) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if bearer == "" {
		bearer = p.apiKey
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read auth api response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &goTrueError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, out)
}

func errorMessage(data []byte) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}

	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}

	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if m != "" {
			return m
		}
	}

	return ""
}

func mapGoTrueError(err error) error {
	var gtErr *goTrueError
	if !errors.As(err, &gtErr) {
		return err
	}

	msg := strings.ToLower(gtErr.Message)
	switch {
	case strings.Contains(msg, "already registered"):
		return ErrEmailTaken
	case strings.Contains(msg, "password should be"), strings.Contains(msg, "weak"):
		return ErrWeakPassword
	case strings.Contains(msg, "invalid login credentials"), gtErr.Status == http.StatusBadRequest:
		return ErrInvalidCredentials
	}

	return err
}
