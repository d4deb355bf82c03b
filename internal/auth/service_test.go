package auth

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockUserRepo struct {
	byTelegramID map[int64]*User
	byID         map[int64]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byTelegramID: make(map[int64]*User),
		byID:         make(map[int64]*User),
	}
}

func (m *mockUserRepo) add(u *User) {
	m.byTelegramID[u.TelegramID] = u
	m.byID[u.ID] = u
}

func (m *mockUserRepo) GetByTelegramID(telegramID int64) (*User, error) {
	return m.byTelegramID[telegramID], nil
}

func (m *mockUserRepo) GetByID(userID int64) (*User, error) {
	return m.byID[userID], nil
}

var _ = Describe("AuthService", func() {
	var (
		repo    *mockUserRepo
		service *Service
		now     time.Time
	)

	userJSON := `{"id":555,"first_name":"Ivan","username":"ivanp"}`

	BeforeEach(func() {
		repo = newMockUserRepo()

		now = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
		validator := NewInitDataValidator(testBotToken, 24*time.Hour, false)
		validator.now = func() time.Time { return now }

		tokenGen := NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = NewService(repo, tokenGen, validator)
	})

	Describe("Authenticate", func() {
		It("should issue tokens for a registered user", func() {
			repo.add(&User{ID: 42, TelegramID: 555, Name: "Ivan", Role: RoleInstaller})
			dto := LoginDTO{InitData: signedInitData(testBotToken, now.Add(-time.Minute), userJSON)}

			tokens, user, err := service.Authenticate(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
			Expect(user.ID).To(Equal(int64(42)))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("42"))
			Expect(claims.TelegramID).To(Equal(int64(555)))
			Expect(claims.Role).To(Equal(RoleInstaller))
		})

		It("should reject an unregistered Telegram account", func() {
			dto := LoginDTO{InitData: signedInitData(testBotToken, now.Add(-time.Minute), userJSON)}

			_, _, err := service.Authenticate(dto)
			Expect(err).To(MatchError(ErrUserNotRegistered))
		})

		It("should reject invalid init data", func() {
			_, _, err := service.Authenticate(LoginDTO{InitData: "hash=garbage"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RefreshTokens", func() {
		It("should rotate the token pair", func() {
			repo.add(&User{ID: 42, TelegramID: 555, Role: RoleInstaller})
			dto := LoginDTO{InitData: signedInitData(testBotToken, now.Add(-time.Minute), userJSON)}

			tokens, _, err := service.Authenticate(dto)
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())
			Expect(rotated.RefreshToken).NotTo(BeEmpty())
		})

		It("should reject garbage refresh tokens", func() {
			_, err := service.RefreshTokens("garbage")
			Expect(err).To(HaveOccurred())
		})
	})
})
