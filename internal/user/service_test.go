package user_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type mockUserRepository struct {
	users       map[int64]*user.User
	nextID      int64
	createError error
	updateError error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[int64]*user.User{}, nextID: 1}
}

func (m *mockUserRepository) GetByID(userID int64) (*user.User, error) {
	return m.users[userID], nil
}

func (m *mockUserRepository) GetByTelegramID(telegramID int64) (*user.User, error) {
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) List() ([]*user.User, error) {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepository) Create(u *user.User) error {
	if m.createError != nil {
		return m.createError
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) Update(u *user.User) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.users[u.ID] = u
	return nil
}

var _ = Describe("UserService", func() {
	var (
		repo    *mockUserRepository
		service *user.Service
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		service = user.NewService(repo)
	})

	Describe("Register", func() {
		It("should create an installer from a plain registration", func() {
			u, err := service.Register(false, user.CreateUserDTO{
				TelegramID: 555,
				Name:       "Иван Монтажников",
				Role:       "",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.ID).ToNot(BeZero())
			Expect(u.Role).To(Equal(auth.RoleInstaller))
		})

		It("should collapse a requested admin role when the caller is not admin", func() {
			u, err := service.Register(false, user.CreateUserDTO{
				TelegramID: 556,
				Name:       "Wannabe",
				Role:       auth.RoleAdmin,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleInstaller))
		})

		It("should let an admin grant the admin role", func() {
			u, err := service.Register(true, user.CreateUserDTO{
				TelegramID: 557,
				Name:       "Second Admin",
				Role:       auth.RoleAdmin,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleAdmin))
		})

		It("should return the existing user on duplicate telegram id", func() {
			_, err := service.Register(false, user.CreateUserDTO{TelegramID: 558, Name: "First"})
			Expect(err).ToNot(HaveOccurred())

			again, err := service.Register(false, user.CreateUserDTO{TelegramID: 558, Name: "Again"})
			Expect(err).To(MatchError(user.ErrUserAlreadyExists))
			Expect(again).ToNot(BeNil())
			Expect(again.Name).To(Equal("First"))
		})

		It("should reject missing name and bad telegram id", func() {
			_, err := service.Register(false, user.CreateUserDTO{TelegramID: 559, Name: "   "})
			var vErr user.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())

			_, err = service.Register(false, user.CreateUserDTO{TelegramID: 0, Name: "No ID"})
			Expect(errors.As(err, &vErr)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var existing *user.User

		BeforeEach(func() {
			var err error
			existing, err = service.Register(true, user.CreateUserDTO{TelegramID: 600, Name: "Original"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should change name and role", func() {
			name := "Renamed"
			role := auth.RoleAdmin
			updated, err := service.Update(existing.ID, user.UpdateUserDTO{Name: &name, Role: &role})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
			Expect(updated.Role).To(Equal(auth.RoleAdmin))
		})

		It("should refuse an empty update", func() {
			_, err := service.Update(existing.ID, user.UpdateUserDTO{})
			var vErr user.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
		})

		It("should report a missing user", func() {
			name := "Ghost"
			_, err := service.Update(9999, user.UpdateUserDTO{Name: &name})
			Expect(err).To(MatchError(user.ErrUserNotFound))
		})
	})

	Describe("TelegramIDFor", func() {
		It("should resolve the chat id and fall back to zero for missing users", func() {
			u, err := service.Register(false, user.CreateUserDTO{TelegramID: 700, Name: "Chatty"})
			Expect(err).ToNot(HaveOccurred())

			id, err := service.TelegramIDFor(u.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(Equal(int64(700)))

			id, err = service.TelegramIDFor(12345)
			Expect(err).ToNot(HaveOccurred())
			Expect(id).To(BeZero())
		})
	})
})
