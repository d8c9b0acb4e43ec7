package blog

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// APIController wires the JSON endpoints to the command handlers and
// repositories.
type APIController struct {
	Debug      bool
	Logger     Logger
	Repo       RepositoryManager
	Tokens     *TokenService
	Activation *StateTokenService
	Reset      *StateTokenService
	Notifier   AccountNotifier
}

type APIControllerOption func(*APIController) *APIController

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in api controller...")
	}

	if c.Activation == nil || c.Reset == nil {
		panic("Missing StateTokenService in api controller...")
	}

	if c.Notifier == nil {
		c.Notifier = &LogNotifier{logger: c.Logger}
	}

	return c
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func WithControllerLogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens *TokenService) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerStateTokens(activation, reset *StateTokenService) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Activation = activation
		c.Reset = reset
		return c
	}
}

func WithControllerNotifier(notifier AccountNotifier) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Notifier = notifier
		return c
	}
}

// RegisterRoutes mounts every endpoint. Link redemption and the reset track
// stay public; everything under the protected group requires a valid access
// token.
func (a *APIController) RegisterRoutes(app *fiber.App) {
	app.Post("/account/token/", a.TokenObtain).Name("token.obtain")
	app.Post("/account/token/refresh/", a.TokenRefresh).Name("token.refresh")

	app.Post("/account/create/", a.AccountCreate).Name("account.create")
	app.Get("/account/activate/:uid/:token/", a.AccountActivate).Name("account.activate")

	app.Post("/account/password/reset/", a.PasswordResetRequest).Name("pwd-reset.request")
	app.Get("/account/password/reset/:uid/:token/", a.PasswordResetVerify).Name("pwd-reset.verify")
	app.Post("/account/password/reset/:uid/:token/", a.PasswordResetExecute).Name("pwd-reset.execute")

	// tags are shared labels, open to everyone
	app.Get("/tags/", a.TagList).Name("tags.list")
	app.Post("/tags/", a.TagCreate).Name("tags.create")

	protected := app.Group("", Protected(a.Tokens, a.Repo))

	protected.Get("/account/me/", a.MeShow).Name("me.get")
	protected.Put("/account/me/", a.MeUpdate).Name("me.put")
	protected.Patch("/account/me/", a.MeUpdate).Name("me.patch")
	protected.Put("/account/password/change/", a.PasswordChange).Name("pwd-change.put")

	protected.Get("/users/", a.UserList).Name("users.list")
	protected.Get("/users/:id/", a.UserShow).Name("users.get")
	protected.Put("/users/:id/", a.UserUpdate).Name("users.put")
	protected.Patch("/users/:id/", a.UserUpdate).Name("users.patch")

	protected.Get("/posts/", a.PostList).Name("posts.list")
	protected.Post("/posts/", a.PostCreate).Name("posts.create")
	protected.Get("/posts/:id/", a.PostShow).Name("posts.get")
	protected.Put("/posts/:id/", a.PostUpdate).Name("posts.put")
	protected.Patch("/posts/:id/", a.PostUpdate).Name("posts.patch")
}

// TokenObtainPayload is the login request body
type TokenObtainPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r TokenObtainPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenObtain exchanges credentials for an access/refresh pair. Every failure
// mode collapses into the same 401 so callers cannot probe which emails have
// accounts.
func (a *APIController) TokenObtain(c *fiber.Ctx) error {
	payload := new(TokenObtainPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	invalidCredentials := goerrors.New("no active account found with the given credentials", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized)

	user, err := a.Repo.Users().GetByEmail(c.Context(), payload.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return invalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for login")
	}

	if !user.IsActive {
		return invalidCredentials
	}

	if err := ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		return invalidCredentials
	}

	pair, err := a.Tokens.Generate(user)
	if err != nil {
		return err
	}

	if a.Debug {
		fmt.Println("======= TOKEN OBTAIN ======")
		fmt.Println(print.MaybePrettyJSON(user))
		fmt.Println("===========================")
	}

	return c.JSON(pair)
}

// TokenRefreshPayload is the refresh request body
type TokenRefreshPayload struct {
	Refresh string `json:"refresh"`
}

// Validate will run validation rules
func (r TokenRefreshPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

func (a *APIController) TokenRefresh(c *fiber.Ctx) error {
	payload := new(TokenRefreshPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	access, err := a.Tokens.Refresh(payload.Refresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"access": access})
}

// AccountCreatePayload is the registration request body
type AccountCreatePayload struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password1"`
	PasswordConfirm string `json:"password2"`
}

// Validate will validate the payload
func (r AccountCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(&r.PasswordConfirm, validation.Required),
	)
}

func (a *APIController) AccountCreate(c *fiber.Ctx) error {
	payload := new(AccountCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	var created *User

	req := RegisterUserMessage{
		Email:           payload.Email,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Phone:           payload.Phone,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		OnResponse: func(user *User) {
			created = user
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Activation, a.Notifier).WithLogger(a.Logger)
	if err := registerUser.Execute(c.Context(), req); err != nil {
		return err
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT CREATE ======")
		fmt.Println(print.MaybePrettyJSON(created))
		fmt.Println("=============================")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"detail": "check your email for the activation link",
		"user":   created,
	})
}

func (a *APIController) AccountActivate(c *fiber.Ctx) error {
	var res *ActivateAccountResponse

	req := ActivateAccountMessage{
		UID:   c.Params("uid"),
		Token: c.Params("token"),
		OnResponse: func(resp *ActivateAccountResponse) {
			res = resp
		},
	}

	activate := NewActivateAccountHandler(a.Repo, a.Activation).WithLogger(a.Logger)
	if err := activate.Execute(c.Context(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"detail":         "account activated",
		"already_active": res.AlreadyActive,
	})
}

// PasswordResetRequestPayload holds values for the reset request
type PasswordResetRequestPayload struct {
	Email string `json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// PasswordResetRequest answers 202 regardless of whether the email matched an
// account; the response body never varies.
func (a *APIController) PasswordResetRequest(c *fiber.Ctx) error {
	payload := new(PasswordResetRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Reset, a.Notifier).WithLogger(a.Logger)
	if err := initPwdReset.Execute(c.Context(), req); err != nil {
		return err
	}

	if a.Debug {
		fmt.Println("======= PASSWORD RESET ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("=============================")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"detail": "if the email matches an account, a recovery message is on its way",
	})
}

func (a *APIController) PasswordResetVerify(c *fiber.Ctx) error {
	var res *VerifyPasswordResetResponse

	req := VerifyPasswordResetMessage{
		UID:   c.Params("uid"),
		Token: c.Params("token"),
		OnResponse: func(resp *VerifyPasswordResetResponse) {
			res = resp
		},
	}

	verify := NewVerifyPasswordResetHandler(a.Repo, a.Reset)
	if err := verify.Execute(c.Context(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"email": res.Email})
}

// PasswordResetExecutePayload holds the replacement password
type PasswordResetExecutePayload struct {
	Password        string `json:"new_password1"`
	PasswordConfirm string `json:"new_password2"`
}

// Validate will validate the payload
func (r PasswordResetExecutePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(&r.PasswordConfirm, validation.Required),
	)
}

func (a *APIController) PasswordResetExecute(c *fiber.Ctx) error {
	payload := new(PasswordResetExecutePayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	req := FinalizePasswordResetMessage{
		UID:             c.Params("uid"),
		Token:           c.Params("token"),
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo, a.Reset).WithLogger(a.Logger)
	if err := finalizePwdReset.Execute(c.Context(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"detail": "password has been reset"})
}

func (a *APIController) MeShow(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	return c.JSON(principal)
}

// UserUpdatePayload is the profile update body. Email stays the login
// identifier and is not editable here. Fields are pointers so a PATCH can
// send any subset; nil means the stored value stays.
type UserUpdatePayload struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone_number"`
}

// Validate will validate the payload for a full PUT replacement
func (r UserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.Required),
	)
}

// ValidatePartial drops the Required rules so a PATCH may omit fields
func (r UserUpdatePayload) ValidatePartial() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
	)
}

func (a *APIController) MeUpdate(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	return a.updateUser(c, principal, principal.ID)
}

func (a *APIController) UserList(c *fiber.Ctx) error {
	records, err := a.Repo.Users().List(c.Context())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return c.JSON(records)
}

func (a *APIController) UserShow(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := a.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("user not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
	}

	if err := OwnerOrSuperuser.Authorize(principal, user.ID, c.Method()); err != nil {
		return err
	}

	return c.JSON(user)
}

func (a *APIController) UserUpdate(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	return a.updateUser(c, principal, id)
}

// updateUser resolves the target, authorizes against it, then applies the
// profile fields. The object check runs after the load so the decision uses
// the stored owner, not anything client-supplied. A PATCH keeps stored values
// for every field the body omits.
func (a *APIController) updateUser(c *fiber.Ctx, principal *User, id uuid.UUID) error {
	payload := new(UserUpdatePayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	var err error
	if c.Method() == fiber.MethodPatch {
		err = payload.ValidatePartial()
	} else {
		err = payload.Validate()
	}
	if err != nil {
		return NewValidationError(err)
	}

	user, err := a.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("user not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
	}

	if err := OwnerOrSuperuser.Authorize(principal, user.ID, c.Method()); err != nil {
		return err
	}

	if payload.FirstName != nil {
		user.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		user.LastName = *payload.LastName
	}

	var phone string
	if payload.Phone != nil {
		phone, err = NormalizePhone(*payload.Phone)
		if err != nil {
			return err
		}
	}

	var updated *User
	err = a.Repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if phone != "" && phone != user.Phone {
			taken, err := a.Repo.Users().PhoneTakenTx(ctx, tx, phone)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check phone uniqueness")
			}
			if taken {
				return goerrors.New("user with this phone already exists", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict).
					WithTextCode(TextCodePhoneExists)
			}
			user.Phone = phone
		}

		updated, err = a.Repo.Users().UpdateTx(ctx, tx, user)
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		if isUniqueViolation(err) {
			return goerrors.New("user with this phone already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithTextCode(TextCodePhoneExists)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	return c.JSON(updated)
}

// PasswordChangePayload is the self-service password change body
type PasswordChangePayload struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password1"`
	NewPasswordConfirm string `json:"new_password2"`
}

// Validate will validate the payload
func (r PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(&r.NewPasswordConfirm, validation.Required),
	)
}

func (a *APIController) PasswordChange(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	payload := new(PasswordChangePayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	req := ChangePasswordMessage{
		UserID:             principal.ID,
		OldPassword:        payload.OldPassword,
		NewPassword:        payload.NewPassword,
		NewPasswordConfirm: payload.NewPasswordConfirm,
	}

	changePwd := NewChangePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := changePwd.Execute(c.Context(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"detail": "password updated"})
}

// PostPayload is the post create/update body. Every field distinguishes
// "omitted" from "set to empty": a nil field on update leaves the stored
// value in place, so a PATCH only touches what it names. An empty tag list
// clears the tags; an empty string clears the body.
type PostPayload struct {
	Title *string  `json:"title"`
	Body  *string  `json:"text"`
	Tags  []string `json:"tags"`
}

// Validate will validate the payload for create and full PUT replacement
func (r PostPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Body, validation.Length(0, 1000)),
	)
}

// ValidatePartial drops the Required rules so a PATCH may omit fields
func (r PostPayload) ValidatePartial() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 100)),
		validation.Field(&r.Body, validation.Length(0, 1000)),
	)
}

// TagIDs parses the tag list, preserving nil to mean "not provided".
func (r PostPayload) TagIDs() ([]uuid.UUID, error) {
	if r.Tags == nil {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(r.Tags))
	for _, raw := range r.Tags {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, goerrors.New("invalid tag id", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"tag": raw})
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (a *APIController) PostList(c *fiber.Ctx) error {
	records, err := a.Repo.Posts().List(c.Context())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list posts")
	}

	return c.JSON(records)
}

// PostCreate stamps the author from the acting principal; the payload has no
// author field to honor or reject.
func (a *APIController) PostCreate(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	if err := OwnerOrSuperuserWithCreate.Authorize(principal, principal.ID, c.Method()); err != nil {
		return err
	}

	payload := new(PostPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	tagIDs, err := payload.TagIDs()
	if err != nil {
		return err
	}

	record := &Post{
		AuthorID: principal.ID,
		Title:    *payload.Title,
	}
	if payload.Body != nil {
		record.Body = *payload.Body
	}

	var created *Post
	err = a.Repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if err := a.checkTagsExistTx(ctx, tx, tagIDs); err != nil {
			return err
		}

		created, err = a.Repo.Posts().CreateTx(ctx, tx, record, tagIDs)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create post")
	}

	created, err = a.Repo.Posts().GetByID(c.Context(), created.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reload post")
	}

	if a.Debug {
		fmt.Println("======= POST CREATE ======")
		fmt.Println(print.MaybePrettyJSON(created))
		fmt.Println("==========================")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a *APIController) PostShow(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	post, err := a.loadPost(c)
	if err != nil {
		return err
	}

	if err := OwnerOrSuperuserWithCreate.Authorize(principal, post.AuthorID, c.Method()); err != nil {
		return err
	}

	return c.JSON(post)
}

// PostUpdate edits title, body, and tags. AuthorID and PublishedAt never
// change after creation regardless of who edits.
func (a *APIController) PostUpdate(c *fiber.Ctx) error {
	principal, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	post, err := a.loadPost(c)
	if err != nil {
		return err
	}

	if err := OwnerOrSuperuserWithCreate.Authorize(principal, post.AuthorID, c.Method()); err != nil {
		return err
	}

	payload := new(PostPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if c.Method() == fiber.MethodPatch {
		err = payload.ValidatePartial()
	} else {
		err = payload.Validate()
	}
	if err != nil {
		return NewValidationError(err)
	}

	tagIDs, err := payload.TagIDs()
	if err != nil {
		return err
	}

	if payload.Title != nil {
		post.Title = *payload.Title
	}
	if payload.Body != nil {
		post.Body = *payload.Body
	}

	err = a.Repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if err := a.checkTagsExistTx(ctx, tx, tagIDs); err != nil {
			return err
		}

		_, err := a.Repo.Posts().UpdateTx(ctx, tx, post, tagIDs)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update post")
	}

	updated, err := a.Repo.Posts().GetByID(c.Context(), post.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reload post")
	}

	return c.JSON(updated)
}

func (a *APIController) loadPost(c *fiber.Ctx) (*Post, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, goerrors.New("invalid post id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	post, err := a.Repo.Posts().GetByID(c.Context(), id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, goerrors.New("post not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve post")
	}

	return post, nil
}

func (a *APIController) checkTagsExistTx(ctx context.Context, tx bun.Tx, tagIDs []uuid.UUID) error {
	ok, err := a.Repo.Tags().ExistTx(ctx, tx, tagIDs)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check tags")
	}
	if !ok {
		return goerrors.New("one or more tags do not exist", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// TagPayload is the tag create body
type TagPayload struct {
	Name string `json:"name"`
}

// Validate will validate the payload
func (r TagPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

func (a *APIController) TagList(c *fiber.Ctx) error {
	records, err := a.Repo.Tags().List(c.Context())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list tags")
	}

	return c.JSON(records)
}

func (a *APIController) TagCreate(c *fiber.Ctx) error {
	payload := new(TagPayload)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err)
	}

	created, err := a.Repo.Tags().Create(c.Context(), &Tag{Name: payload.Name})
	if err != nil {
		if isUniqueViolation(err) {
			return goerrors.New("tag with this name already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create tag")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}
