package inmemdb

import (
	"context"

	"github.com/trezcool/kenova/core/user"
)

type userRepository struct {
	db            *table[user.User]
	parentStudent *table[user.ParentStudent]
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user, parentStudent: db.parentStudent}
}

func (repo *userRepository) emailTaken(email string, excludedIDs ...int) bool {
	for _, usr := range repo.db.rows {
		if usr.Email == email && !isExcluded(usr.ID, excludedIDs) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...int) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.emailTaken(email, excludedIDs...) {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// unique index on email
	if repo.emailTaken(usr.Email) {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = repo.db.nextID()
	repo.db.rows[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch {
	case filter.ID != 0:
		if usr, ok := repo.db.rows[filter.ID]; ok {
			return *usr, nil
		}
	case filter.Email != "":
		for _, usr := range repo.db.rows {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.db.sorted() {
		if filter.Match(usr) {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}
	repo.db.rows[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateParentStudent(_ context.Context, ps user.ParentStudent) (user.ParentStudent, error) {
	repo.parentStudent.mutex.Lock()
	defer repo.parentStudent.mutex.Unlock()

	for _, link := range repo.parentStudent.rows {
		if link.ParentID == ps.ParentID && link.StudentID == ps.StudentID {
			return user.ParentStudent{}, user.ErrLinkExists
		}
	}
	ps.ID = repo.parentStudent.nextID()
	repo.parentStudent.rows[ps.ID] = &ps
	return ps, nil
}

func (repo *userRepository) QueryChildren(_ context.Context, parentID int) ([]user.User, error) {
	repo.parentStudent.mutex.RLock()
	defer repo.parentStudent.mutex.RUnlock()
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	children := make([]user.User, 0)
	for _, usr := range repo.db.sorted() {
		for _, link := range repo.parentStudent.rows {
			if link.ParentID == parentID && link.StudentID == usr.ID {
				children = append(children, usr)
				break
			}
		}
	}
	return children, nil
}

func isExcluded(id int, excludedIDs []int) bool {
	for _, exclID := range excludedIDs {
		if id == exclID {
			return true
		}
	}
	return false
}
