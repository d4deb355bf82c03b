package report_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/editor"
	"github.com/smartinstall/field-reports/internal/report"
)

// withUser injects an authenticated user the way the auth middleware does.
func withUser(user *auth.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), auth.ContextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var _ = Describe("Report handler", func() {
	var (
		repo    *mockReportRepository
		catalog *mockCatalog
		server  *httptest.Server
		client  *editor.Client
		ctx     context.Context

		tomorrow string
	)

	installerUser := &auth.User{ID: 10, TelegramID: 555, Name: "Installer", Role: auth.RoleInstaller}

	BeforeEach(func() {
		repo = newMockReportRepository()
		catalog = &mockCatalog{table: report.PriceTable{
			1: {Price: 500, Coefficient: 1},
		}}
		service := report.NewService(repo, catalog, &mockBus{}, slog.Default())
		handler := report.NewHandler(service, nil)

		router := chi.NewRouter()
		router.Route("/api/v1/schedule", func(r chi.Router) {
			r.Get("/", handler.GetSchedule)
			r.Post("/complete", handler.SubmitReport)
			r.Post("/draft", handler.SaveDraft)
		})

		server = httptest.NewServer(withUser(installerUser, router))
		client = editor.NewClient(server.URL)
		ctx = context.Background()

		tomorrow = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	})

	AfterEach(func() {
		server.Close()
	})

	It("should persist an editor save without an explicit user id", func() {
		snap, err := client.Save(ctx, tomorrow, report.StatusDraft, nil, report.WorkLog{
			{ItemID: 1, Quantity: 2},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(snap).NotTo(BeNil())
		Expect(snap.Status).To(Equal(report.StatusDraft))
		Expect(snap.Earnings).To(Equal(int64(1000)))

		stored, err := repo.GetByUserDate(installerUser.ID, tomorrow)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).NotTo(BeNil())
	})

	It("should round-trip save and fetch for one date", func() {
		objectID := int64(4)
		_, err := client.Save(ctx, tomorrow, report.StatusPendingApproval, &objectID, report.WorkLog{
			{ItemID: 1, Quantity: 3},
		})
		Expect(err).NotTo(HaveOccurred())

		snap, err := client.Fetch(ctx, tomorrow)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).NotTo(BeNil())
		Expect(snap.Status).To(Equal(report.StatusPendingApproval))
		Expect(snap.Earnings).To(Equal(int64(1500)))
		Expect(snap.ObjectID).To(HaveValue(Equal(int64(4))))
	})

	It("should return no snapshot for a date without a report", func() {
		_, err := client.Save(ctx, tomorrow, report.StatusDraft, nil, report.WorkLog{
			{ItemID: 1, Quantity: 1},
		})
		Expect(err).NotTo(HaveOccurred())

		otherDay := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
		snap, err := client.Fetch(ctx, otherDay)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(BeNil())
	})
})
