package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kenova/core"
)

// Role decides which dashboard and which actions a User has access to.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

var AllRoles = []Role{RoleSuperadmin, RoleTeacher, RoleStudent, RoleParent}

// ParseRole returns the Role named by s; ok is false when s is not one of AllRoles.
func ParseRole(s string) (r Role, ok bool) {
	s = core.CleanString(s, true /* lower */)
	for _, role := range AllRoles {
		if string(role) == s {
			return role, true
		}
	}
	return "", false
}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// MaxPasswordLen is the bcrypt input limit, in bytes.
const MaxPasswordLen = 72

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Validated    bool      `db:"validated" json:"validated"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// MarkValidated flips the validated flag on; it never goes back to false.
func (u *User) MarkValidated() {
	u.Validated = true
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) SetRole(role Role) {
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) IsSuperadmin() bool { return u.Role == RoleSuperadmin }
func (u *User) IsTeacher() bool    { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }
func (u *User) IsParent() bool     { return u.Role == RoleParent }

// ParentStudent links a parent User to one of their children.
type ParentStudent struct {
	ID        int `db:"id" json:"id"`
	ParentID  int `db:"parent_id" json:"parent_id"`
	StudentID int `db:"student_id" json:"student_id"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email    string `form:"email" validate:"required,max=120,email"`
	Password string `form:"password" validate:"required,max=72"`
	Role     string `form:"role" validate:"required,userrole"`
}

// Validate cleans the submitted fields, then applies the form rules and the registration policy.
func (nu *NewUser) Validate(validate *validator.Validate, policy RegistrationPolicy) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return policy.Check(nu.Email, Role(nu.Role))
}

// RegistrationPolicy restricts who may register with which role.
type RegistrationPolicy struct {
	OrgDomain        string
	SuperadminEmails []string
}

func NewRegistrationPolicy(conf *core.Config) RegistrationPolicy {
	emails := make([]string, 0, len(conf.Registration.SuperadminEmails))
	for _, e := range conf.Registration.SuperadminEmails {
		emails = append(emails, core.CleanString(e, true /* lower */))
	}
	return RegistrationPolicy{
		OrgDomain:        conf.Registration.OrgDomain,
		SuperadminEmails: emails,
	}
}

// Check enforces: superadmins must use an allow-listed email, everyone else an email on OrgDomain.
// email is expected to be cleaned already.
func (p RegistrationPolicy) Check(email string, role Role) error {
	if role == RoleSuperadmin {
		for _, allowed := range p.SuperadminEmails {
			if email == allowed {
				return nil
			}
		}
		return core.NewValidationError(ErrInvalidSuperadminEmail,
			core.FieldError{Field: "email", Error: ErrInvalidSuperadminEmail.Error()})
	}
	if !strings.HasSuffix(email, p.OrgDomain) {
		msg := "Only " + p.OrgDomain + " domains are allowed for this role"
		return core.NewValidationError(ErrDomainNotAllowed, core.FieldError{Field: "email", Error: msg})
	}
	return nil
}

type GetFilter struct {
	ID    int
	Email string
}

type QueryFilter struct {
	Validated *bool
	Roles     []Role
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || (qf.Validated == nil && len(qf.Roles) == 0)
}

// Match reports whether usr satisfies every set field of the filter.
func (qf *QueryFilter) Match(usr User) bool {
	if qf.IsEmpty() {
		return true
	}
	if qf.Validated != nil && usr.Validated != *qf.Validated {
		return false
	}
	if len(qf.Roles) > 0 {
		for _, r := range qf.Roles {
			if usr.Role == r {
				return true
			}
		}
		return false
	}
	return true
}
