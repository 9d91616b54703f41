package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kenova/core"
)

var (
	// errors
	ErrNotFound               = errors.New("user not found")
	ErrEmailExists            = errors.New("a user with this email already exists")
	ErrInvalidCredentials     = errors.New("Invalid username or password")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidSuperadminEmail = errors.New("Invalid superadmin email")
	ErrDomainNotAllowed       = errors.New("domain not allowed for this role")
	ErrLinkExists             = errors.New("this parent is already linked to this student")
	ErrNotAParent             = errors.New("user is not a parent")
	ErrNotAStudent            = errors.New("user is not a student")

	// checked against on unknown emails
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kenova"), bcrypt.MinCost)
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...int) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields; users are ordered by ID.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		CreateParentStudent(ctx context.Context, ps ParentStudent) (ParentStudent, error)
		// QueryChildren returns the students linked to parentID, ordered by ID.
		QueryChildren(ctx context.Context, parentID int) ([]User, error)
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		ListByValidation(ctx context.Context, validated bool) ([]User, error)
		MarkValidated(ctx context.Context, id int) (User, error)
		AssignRole(ctx context.Context, id int, role string) (User, error)
		Children(ctx context.Context, parentID int) ([]User, error)
		LinkParent(ctx context.Context, parentID, studentID int) (ParentStudent, error)
		SetPassword(ctx context.Context, email, pwd string) (User, error)
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		policy   RegistrationPolicy
	}
)

// NewService returns the default user Service.
// validate must already know the user validators (see InitValidators).
func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, policy RegistrationPolicy) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		policy:   policy,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, excludedIDs ...int) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register validates nu and creates an unvalidated User. Nothing is written when an error is returned.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate, svc.policy); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Role:      Role(nu.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := setPassword(&usr, nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err == ErrEmailExists { // lost a race with a concurrent registration
		return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return usr, err
}

// setPassword hashes pwd into usr. Passwords over MaxPasswordLen bytes are a ValidationError;
// the form rule counts characters, so multibyte input can still get here.
func setPassword(usr *User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return core.NewValidationError(err, core.FieldError{
				Field: "password",
				Error: fmt.Sprintf("password must be a maximum of %d characters in length", MaxPasswordLen),
			})
		}
		return errors.Wrap(err, "hashing password")
	}
	return nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *service) ListByValidation(ctx context.Context, validated bool) ([]User, error) {
	return svc.repo.QueryUsers(ctx, &QueryFilter{Validated: &validated})
}

// MarkValidated sets the validated flag and notifies the user by email.
// Validating an already validated user is a no-op: no write and no email, so the
// "Account Validated" mail goes out exactly once per user.
func (svc *service) MarkValidated(ctx context.Context, id int) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.Validated {
		return usr, nil
	}

	usr.MarkValidated()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}
	svc.sendValidationMail(usr)
	return usr, nil
}

func (svc *service) sendValidationMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: usr.Email}},
		Subject:      "Account Validated",
		TemplateName: "account_validated",
		TemplateData: usr,
	})
}

// AssignRole overwrites the role of the user; unknown roles are rejected with ErrInvalidRole, unknown users with ErrNotFound.
func (svc *service) AssignRole(ctx context.Context, id int, role string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	r, ok := ParseRole(role)
	if !ok {
		return User{}, ErrInvalidRole
	}
	usr.SetRole(r)
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Children(ctx context.Context, parentID int) ([]User, error) {
	return svc.repo.QueryChildren(ctx, parentID)
}

// LinkParent makes the student visible on the parent's dashboard.
func (svc *service) LinkParent(ctx context.Context, parentID, studentID int) (ParentStudent, error) {
	parent, err := svc.GetByID(ctx, parentID)
	if err != nil {
		return ParentStudent{}, errors.Wrapf(err, "parent %d", parentID)
	}
	if !parent.IsParent() {
		return ParentStudent{}, ErrNotAParent
	}
	student, err := svc.GetByID(ctx, studentID)
	if err != nil {
		return ParentStudent{}, errors.Wrapf(err, "student %d", studentID)
	}
	if !student.IsStudent() {
		return ParentStudent{}, ErrNotAStudent
	}
	return svc.repo.CreateParentStudent(ctx, ParentStudent{ParentID: parent.ID, StudentID: student.ID})
}

func (svc *service) SetPassword(ctx context.Context, email, pwd string) (User, error) {
	if pwd == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: "password is required"})
	}
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := setPassword(&usr, pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
