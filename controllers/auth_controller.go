package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/utils"
)

const birthDateLayout = "2006-01-02"

// AuthController handles registration, login and the caller's own profile.
type AuthController struct {
	users stores.UserStore
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users stores.UserStore) *AuthController {
	return &AuthController{users: users}
}

// UserView is the API representation of an account.
type UserView struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Bio         string    `json:"bio"`
	ProfilePic  *string   `json:"profile_pic"`
	BirthDate   *string   `json:"birth_date"`
	IsSuperuser bool      `json:"is_superuser"`
	Groups      []string  `json:"groups"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserView(u *models.User) UserView {
	v := UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Bio:         u.Bio,
		IsSuperuser: u.IsSuperuser,
		Groups:      u.GroupNames(),
		Permissions: u.PermissionCodenames(),
		CreatedAt:   u.CreatedAt,
	}
	if u.ProfilePic != "" {
		pic := u.ProfilePic
		v.ProfilePic = &pic
	}
	if u.BirthDate != nil {
		d := u.BirthDate.Format(birthDateLayout)
		v.BirthDate = &d
	}
	return v
}

// Register creates an account in the Members group and returns a token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username   string  `json:"username"`
		Email      string  `json:"email"`
		Password   string  `json:"password"`
		Password2  string  `json:"password2"`
		Bio        string  `json:"bio"`
		ProfilePic string  `json:"profile_pic"`
		BirthDate  *string `json:"birth_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	fields := map[string]string{}
	req.Username = strings.TrimSpace(req.Username)
	if msg := checkUsername(req.Username); msg != "" {
		fields["username"] = msg
	}
	if req.Password != req.Password2 {
		fields["password"] = "Password fields didn't match."
	} else if err := utils.ValidatePassword(req.Password, req.Username); err != nil {
		fields["password"] = err.Error()
	}
	user := &models.User{Username: req.Username}
	applyProfile(user, req.Email, req.Bio, req.ProfilePic, req.BirthDate, fields)
	if len(fields) > 0 {
		utils.FieldErrors(ctx, http.StatusBadRequest, 40002, fields)
		return
	}

	ip := ctx.ClientIP()
	if !utils.RegistrationCooldownTry(ctx.Request.Context(), ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many registration attempts, try again later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ctx.Request.Context(), ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}
	user.PasswordHash = hash
	user.IsSuperuser = config.Get().IsSuperuserName(user.Username)

	if err := a.users.Create(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, stores.ErrUsernameTaken) {
			utils.FieldErrors(ctx, http.StatusBadRequest, 40002, map[string]string{"username": err.Error() + "."})
			return
		}
		utils.Logger.Error("create user failed", zap.String("username", user.Username), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	utils.RegistrationDailyIncrement(ctx.Request.Context(), ip)
	utils.Logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username), zap.String("ip", ip))

	token, _, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	utils.Created(ctx, gin.H{"token": token, "user": newUserView(user)})
}

// Login exchanges credentials for a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.FindByUsername(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, _, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": newUserView(user)})
}

// Logout revokes the presented token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	claims, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication credentials were not provided")
		return
	}
	expiresAt := time.Now().Add(time.Duration(config.Get().JWTTTLHours) * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(claims.ID, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the caller's account with groups and permissions.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.users.GetByID(ctx.Request.Context(), middleware.CallerFrom(ctx).UserID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, newUserView(user))
}

// UpdateProfile changes the caller's email, bio, picture or birth date.
// Fields left out of the body are kept.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Email      *string `json:"email"`
		Bio        *string `json:"bio"`
		ProfilePic *string `json:"profile_pic"`
		BirthDate  *string `json:"birth_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	user, err := a.users.GetByID(ctx.Request.Context(), middleware.CallerFrom(ctx).UserID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	fields := map[string]string{}
	applyProfile(user, deref(req.Email, user.Email), deref(req.Bio, user.Bio), deref(req.ProfilePic, user.ProfilePic), req.BirthDate, fields)
	if len(fields) > 0 {
		utils.FieldErrors(ctx, http.StatusBadRequest, 40031, fields)
		return
	}
	if err := a.users.UpdateProfile(ctx.Request.Context(), user); err != nil {
		utils.Logger.Error("update profile failed", zap.Uint("user_id", user.ID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
		return
	}
	// author pictures are embedded in cached comment and article payloads
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheCommentsPrefix)
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheArticlesPrefix)

	utils.Success(ctx, newUserView(user))
}

func deref(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

// checkUsername allows letters, digits and @.+-_ up to 150 characters.
func checkUsername(name string) string {
	if name == "" {
		return "This field may not be blank."
	}
	if utf8.RuneCountInString(name) > 150 {
		return "Ensure this field has no more than 150 characters."
	}
	for _, r := range name {
		if !validUsernameRune(r) {
			return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
		}
	}
	return ""
}

func validUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("@.+-_", r):
		return true
	}
	return false
}

// applyProfile validates and copies the optional profile fields onto u,
// recording problems in fields. A nil birthDate keeps the stored one; an
// empty string clears it.
func applyProfile(u *models.User, email, bio, pic string, birthDate *string, fields map[string]string) {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	u.Email = email

	bio = utils.Sanitize(strings.TrimSpace(bio))
	if utf8.RuneCountInString(bio) > 1000 {
		fields["bio"] = "Ensure this field has no more than 1000 characters."
	}
	u.Bio = bio

	pic = strings.TrimSpace(pic)
	if pic != "" {
		parsed, err := url.ParseRequestURI(pic)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			fields["profile_pic"] = "Enter a valid URL."
		}
	}
	u.ProfilePic = pic

	if birthDate != nil {
		raw := strings.TrimSpace(*birthDate)
		if raw == "" {
			u.BirthDate = nil
			return
		}
		d, err := time.Parse(birthDateLayout, raw)
		if err != nil {
			fields["birth_date"] = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
			return
		}
		u.BirthDate = &d
	}
}
