package identity

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods the controller registers against.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// IdentityController exposes the facade over JSON HTTP routes.
type IdentityController struct {
	Debug  bool
	Logger Logger
	Facade *Facade
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func WithControllerLogger(logger Logger) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Debug = debug
		return c
	}
}

func NewIdentityController(facade *Facade, opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger: defLogger{},
		Facade: facade,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Facade == nil {
		panic("Missing Facade in identity controller...")
	}

	return c
}

// RegisterIdentityRoutes mounts the controller on a route group.
func RegisterIdentityRoutes(group RouteRegistrar, facade *Facade, opts ...IdentityControllerOption) *IdentityController {
	controller := NewIdentityController(facade, opts...)

	group.Post("/login", controller.Login)
	group.Post("/register", controller.Register)
	group.Post("/logout", controller.Logout)
	group.Post("/check-email", controller.CheckEmail)
	group.Get("/state", controller.CurrentState)
	group.Post("/verification/check", controller.CheckVerification)
	group.Post("/verification/dismiss", controller.DismissVerification)

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest payload
type RegisterRequest struct {
	DisplayName     string `form:"display_name" json:"display_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone" json:"phone"`
	Password        string `form:"password" json:"password"`
	Role            string `form:"role" json:"role"`
	Avatar          string `form:"avatar" json:"avatar"`
	Agency          string `form:"agency" json:"agency"`
	ExperienceYears int    `form:"experience_years" json:"experience_years"`
	Specialty       string `form:"specialty" json:"specialty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(&r.Avatar, is.URL),
	)
}

// CheckEmailRequest payload
type CheckEmailRequest struct {
	Email string `form:"email" json:"email"`
}

func (r CheckEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (c *IdentityController) Login(ctx router.Context) error {
	payload := &LoginRequest{}
	if err := ctx.Bind(payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login payload"))
	}

	if c.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload"))
	}

	state, err := c.Facade.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, stateResponse(state, c.Facade.VerificationPrompt()))
}

func (c *IdentityController) Register(ctx router.Context) error {
	payload := &RegisterRequest{}
	if err := ctx.Bind(payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse registration payload"))
	}

	if c.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload"))
	}

	state, err := c.Facade.Register(ctx.Context(), RegisterAccountMessage{
		DisplayName:     payload.DisplayName,
		Email:           payload.Email,
		Phone:           payload.Phone,
		Password:        payload.Password,
		Role:            payload.Role,
		Avatar:          payload.Avatar,
		Agency:          payload.Agency,
		ExperienceYears: payload.ExperienceYears,
		Specialty:       payload.Specialty,
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, stateResponse(state, c.Facade.VerificationPrompt()))
}

func (c *IdentityController) Logout(ctx router.Context) error {
	c.Facade.Logout(ctx.Context())
	return ctx.JSON(router.StatusOK, map[string]any{
		"status": "logged_out",
	})
}

func (c *IdentityController) CheckEmail(ctx router.Context) error {
	payload := &CheckEmailRequest{}
	if err := ctx.Bind(payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid payload"))
	}

	check, err := c.Facade.CheckEmail(ctx.Context(), payload.Email)
	if err != nil {
		return c.renderError(ctx, err)
	}

	body := map[string]any{
		"exists": check.Exists,
	}

	if check.Match != nil {
		body["match"] = map[string]any{
			"id":           check.Match.ID,
			"email":        check.Match.Email,
			"display_name": check.Match.DisplayName,
			"source":       check.Match.Source,
		}
	}

	return ctx.JSON(router.StatusOK, body)
}

func (c *IdentityController) CurrentState(ctx router.Context) error {
	state := c.Facade.CurrentState()
	return ctx.JSON(router.StatusOK, stateResponse(state, c.Facade.VerificationPrompt()))
}

func (c *IdentityController) CheckVerification(ctx router.Context) error {
	verified, err := c.Facade.CheckVerification(ctx.Context())
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"verified": verified,
		"prompt":   promptResponse(c.Facade.VerificationPrompt()),
	})
}

func (c *IdentityController) DismissVerification(ctx router.Context) error {
	prompt := c.Facade.DismissVerificationPrompt(ctx.Context())
	return ctx.JSON(router.StatusOK, map[string]any{
		"prompt": promptResponse(prompt),
	})
}

func stateResponse(state AuthState, prompt VerificationPromptState) map[string]any {
	body := map[string]any{
		"is_authenticated": state.IsAuthenticated,
		"is_loading":       state.IsLoading,
		"prompt":           promptResponse(prompt),
	}

	if state.Principal != nil {
		body["principal"] = state.Principal
	}

	return body
}

func promptResponse(prompt VerificationPromptState) map[string]any {
	return map[string]any{
		"visible":   prompt.Visible,
		"dismissed": prompt.DismissedThisSession,
	}
}

func (c *IdentityController) renderError(ctx router.Context, err error) error {
	c.Logger.Error("identity controller error: %v", err)

	status := router.StatusInternalServerError
	message := "internal error"
	textCode := ""

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		message = richErr.Message
		textCode = richErr.TextCode

		switch richErr.Category {
		case goerrors.CategoryAuth:
			status = router.StatusUnauthorized
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			status = router.StatusBadRequest
		case goerrors.CategoryNotFound:
			status = router.StatusNotFound
		case goerrors.CategoryConflict:
			status = http.StatusConflict
		case goerrors.CategoryRateLimit:
			status = http.StatusTooManyRequests
		}
	}

	return ctx.JSON(status, map[string]any{
		"error": message,
		"code":  textCode,
	})
}
