package report_test

import (
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal"
	reportDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/report"
	"github.com/smartinstall/field-reports/internal/core/events"
	"github.com/smartinstall/field-reports/internal/report"
)

// Mock repository for testing
type mockReportRepository struct {
	days   map[int64]*reportDatamodel.ScheduledDay
	nextID int64

	createError error
	updateError error
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{
		days:   make(map[int64]*reportDatamodel.ScheduledDay),
		nextID: 1,
	}
}

func (m *mockReportRepository) GetByID(id int64) (*reportDatamodel.ScheduledDay, error) {
	day, ok := m.days[id]
	if !ok {
		return nil, errors.New("report not found")
	}
	return day, nil
}

func (m *mockReportRepository) GetByUserDate(userID int64, date string) (*reportDatamodel.ScheduledDay, error) {
	for _, day := range m.days {
		if day.UserID == userID && day.Date == date {
			return day, nil
		}
	}
	return nil, nil
}

func (m *mockReportRepository) List() ([]*reportDatamodel.ScheduledDay, error) {
	out := make([]*reportDatamodel.ScheduledDay, 0, len(m.days))
	for _, day := range m.days {
		out = append(out, day)
	}
	return out, nil
}

func (m *mockReportRepository) ListByUser(userID int64) ([]*reportDatamodel.ScheduledDay, error) {
	out := make([]*reportDatamodel.ScheduledDay, 0)
	for _, day := range m.days {
		if day.UserID == userID {
			out = append(out, day)
		}
	}
	return out, nil
}

func (m *mockReportRepository) ListByStatus(status string) ([]*reportDatamodel.ScheduledDay, error) {
	out := make([]*reportDatamodel.ScheduledDay, 0)
	for _, day := range m.days {
		if day.Status == status {
			out = append(out, day)
		}
	}
	return out, nil
}

func (m *mockReportRepository) Create(day *reportDatamodel.ScheduledDay) error {
	if m.createError != nil {
		return m.createError
	}
	day.ID = m.nextID
	m.nextID++
	day.CreatedAt = time.Now()
	day.UpdatedAt = time.Now()
	m.days[day.ID] = day
	return nil
}

func (m *mockReportRepository) Update(day *reportDatamodel.ScheduledDay) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.days[day.ID]; !ok {
		return errors.New("report not found")
	}
	day.UpdatedAt = time.Now()
	m.days[day.ID] = day
	return nil
}

type mockCatalog struct {
	table report.PriceTable
	err   error
}

func (m *mockCatalog) PriceTable() (report.PriceTable, error) {
	return m.table, m.err
}

type mockBus struct {
	published []events.Event
}

func (m *mockBus) Publish(_ context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

func (m *mockBus) eventTypes() []string {
	types := make([]string, len(m.published))
	for i, e := range m.published {
		types[i] = e.EventType()
	}
	return types
}

var _ = Describe("ReportService", func() {
	var (
		repo    *mockReportRepository
		catalog *mockCatalog
		bus     *mockBus
		service *report.Service
		ctx     context.Context

		installer report.Actor
		admin     report.Actor

		today string
	)

	BeforeEach(func() {
		repo = newMockReportRepository()
		catalog = &mockCatalog{table: report.PriceTable{
			1: {Price: 500, Coefficient: 1},
			2: {Price: 300, Coefficient: 1},
		}}
		bus = &mockBus{}
		service = report.NewService(repo, catalog, bus, slog.Default())
		ctx = context.Background()

		installer = report.Actor{ID: 10}
		admin = report.Actor{ID: 1, Admin: true}

		today = time.Now().Format("2006-01-02")
	})

	Describe("Upsert", func() {
		Context("when creating a new draft", func() {
			It("should store the report with computed earnings", func() {
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "1", Quantity: 2},
						{ItemID: "2", Quantity: 1},
					},
				}

				rep, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Status).To(Equal(report.StatusDraft))
				Expect(rep.Earnings).To(Equal(int64(1300)))
				Expect(rep.Completed).To(BeFalse())
				Expect(bus.published).To(BeEmpty())
			})

			It("should apply line coefficients to earnings", func() {
				coefficient := 1.5
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "2", Quantity: 1, Coefficient: &coefficient},
					},
				}

				rep, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Earnings).To(Equal(int64(450)))
			})

			It("should drop zero quantity lines", func() {
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "1", Quantity: 0},
						{ItemID: "2", Quantity: 1},
					},
				}

				rep, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.WorkLog).To(HaveLen(1))
				Expect(rep.WorkLog[0].ItemID).To(Equal(int64(2)))
			})

			It("should reject past dates for installers", func() {
				yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   yesterday,
				}

				_, err := service.Upsert(ctx, installer, dto)
				Expect(err).To(MatchError(report.ErrPastDateReport))
			})

			It("should allow past dates for admins", func() {
				yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
				dto := report.UpsertReportDTO{
					UserID: admin.ID,
					Date:   yesterday,
				}

				_, err := service.Upsert(ctx, admin, dto)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should refuse writing another user's report", func() {
				dto := report.UpsertReportDTO{UserID: 99, Date: today}

				_, err := service.Upsert(ctx, installer, dto)
				Expect(err).To(MatchError(report.ErrAccessDenied))
			})
		})

		Context("when updating an existing report", func() {
			BeforeEach(func() {
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "1", Quantity: 1},
					},
				}
				_, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should update a past-date report that already exists", func() {
				// The existing row came from today, but the gate only
				// applies to creating new rows.
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "2", Quantity: 3},
					},
				}

				rep, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Earnings).To(Equal(int64(900)))
			})

			It("should publish a submit event when status becomes pending", func() {
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					Status: report.StatusPendingApproval,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "1", Quantity: 1},
					},
				}

				_, err := service.Upsert(ctx, installer, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(bus.eventTypes()).To(ContainElement("report.submitted"))
			})

			It("should refuse edits once the report is approved", func() {
				day, err := repo.GetByUserDate(installer.ID, today)
				Expect(err).NotTo(HaveOccurred())
				day.Status = report.StatusApprovedWaitingPayment

				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
				}
				_, err = service.Upsert(ctx, installer, dto)
				Expect(err).To(MatchError(report.ErrNotEditable))
			})

			It("should refuse a direct status escalation", func() {
				dto := report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   today,
					Status: report.StatusCompleted,
				}
				_, err := service.Upsert(ctx, installer, dto)

				var appErr *internal.AppError
				Expect(errors.As(err, &appErr)).To(BeTrue())
			})
		})
	})

	Describe("workflow transitions", func() {
		var reportID int64

		BeforeEach(func() {
			dto := report.UpsertReportDTO{
				UserID: installer.ID,
				Date:   today,
				Status: report.StatusPendingApproval,
				WorkLog: []report.WorkLogItemDTO{
					{ItemID: "1", Quantity: 2},
				},
			}
			rep, err := service.Upsert(ctx, installer, dto)
			Expect(err).NotTo(HaveOccurred())
			reportID = rep.ID
			bus.published = nil
		})

		Describe("Approve", func() {
			It("should move the report to approved_waiting_payment", func() {
				rep, err := service.Approve(ctx, admin, reportID, report.ApproveReportDTO{})
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Status).To(Equal(report.StatusApprovedWaitingPayment))
				Expect(bus.eventTypes()).To(ContainElement("report.approved"))
			})

			It("should recompute earnings with coefficient overrides", func() {
				dto := report.ApproveReportDTO{
					Coefficients: map[string]float64{"1": 1.5},
				}
				rep, err := service.Approve(ctx, admin, reportID, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Earnings).To(Equal(int64(1500)))
			})

			It("should preserve submit-time earnings when the catalog coefficient applies", func() {
				catalog.table[3] = report.PriceInfo{Price: 100, Coefficient: 2}
				tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

				submitted, err := service.Upsert(ctx, installer, report.UpsertReportDTO{
					UserID: installer.ID,
					Date:   tomorrow,
					Status: report.StatusPendingApproval,
					WorkLog: []report.WorkLogItemDTO{
						{ItemID: "3", Quantity: 3},
					},
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(submitted.Earnings).To(Equal(int64(600)))

				approved, err := service.Approve(ctx, admin, submitted.ID, report.ApproveReportDTO{})
				Expect(err).NotTo(HaveOccurred())
				Expect(approved.Earnings).To(Equal(int64(600)))
			})

			It("should deny non-admin callers", func() {
				_, err := service.Approve(ctx, installer, reportID, report.ApproveReportDTO{})
				Expect(err).To(MatchError(report.ErrAccessDenied))
			})

			It("should refuse approving twice", func() {
				_, err := service.Approve(ctx, admin, reportID, report.ApproveReportDTO{})
				Expect(err).NotTo(HaveOccurred())

				_, err = service.Approve(ctx, admin, reportID, report.ApproveReportDTO{})
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("Reject", func() {
			It("should return the report to draft with the work log intact", func() {
				rep, err := service.Reject(ctx, admin, reportID)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Status).To(Equal(report.StatusDraft))
				Expect(rep.WorkLog).To(HaveLen(1))
				Expect(rep.WorkLog[0].Quantity).To(Equal(2))
				Expect(bus.eventTypes()).To(ContainElement("report.rejected"))
			})

			It("should deny non-admin callers", func() {
				_, err := service.Reject(ctx, installer, reportID)
				Expect(err).To(MatchError(report.ErrAccessDenied))
			})
		})

		Describe("MarkPaid and ConfirmPayment", func() {
			BeforeEach(func() {
				_, err := service.Approve(ctx, admin, reportID, report.ApproveReportDTO{})
				Expect(err).NotTo(HaveOccurred())
			})

			It("should let the admin mark paid and the owner confirm", func() {
				rep, err := service.MarkPaid(ctx, admin, reportID)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Status).To(Equal(report.StatusPaidWaitingConfirmation))

				rep, err = service.ConfirmPayment(ctx, installer, reportID)
				Expect(err).NotTo(HaveOccurred())
				Expect(rep.Status).To(Equal(report.StatusCompleted))
				Expect(rep.Completed).To(BeTrue())
				Expect(bus.eventTypes()).To(ContainElements("report.paid", "report.confirmed"))
			})

			It("should deny confirmation by a different installer", func() {
				_, err := service.MarkPaid(ctx, admin, reportID)
				Expect(err).NotTo(HaveOccurred())

				stranger := report.Actor{ID: 77}
				_, err = service.ConfirmPayment(ctx, stranger, reportID)
				Expect(err).To(MatchError(report.ErrAccessDenied))
			})

			It("should refuse confirming before payment is marked", func() {
				_, err := service.ConfirmPayment(ctx, installer, reportID)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("EditReport", func() {
		var reportID int64

		BeforeEach(func() {
			dto := report.UpsertReportDTO{
				UserID: installer.ID,
				Date:   today,
				WorkLog: []report.WorkLogItemDTO{
					{ItemID: "1", Quantity: 2},
				},
			}
			rep, err := service.Upsert(ctx, installer, dto)
			Expect(err).NotTo(HaveOccurred())
			reportID = rep.ID
			bus.published = nil
		})

		It("should let the owner rewrite the work log and recompute earnings", func() {
			dto := report.EditReportDTO{
				WorkLog: []report.WorkLogItemDTO{
					{ItemID: "2", Quantity: 3},
				},
			}

			rep, err := service.EditReport(ctx, installer, reportID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Earnings).To(Equal(int64(900)))
			Expect(rep.WorkLog).To(HaveLen(1))
		})

		It("should set and clear the site assignment", func() {
			objectID := "4"
			rep, err := service.EditReport(ctx, installer, reportID, report.EditReportDTO{ObjectID: &objectID})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.ObjectID).To(HaveValue(Equal(int64(4))))

			empty := ""
			rep, err = service.EditReport(ctx, installer, reportID, report.EditReportDTO{ObjectID: &empty})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.ObjectID).To(BeNil())
		})

		It("should publish a submit event when the edit submits the draft", func() {
			status := report.StatusPendingApproval
			rep, err := service.EditReport(ctx, installer, reportID, report.EditReportDTO{Status: &status})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Status).To(Equal(report.StatusPendingApproval))
			Expect(bus.eventTypes()).To(ConsistOf(events.EventTypeReportSubmitted))
		})

		It("should reject installer status escalation", func() {
			status := report.StatusCompleted
			_, err := service.EditReport(ctx, installer, reportID, report.EditReportDTO{Status: &status})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
		})

		It("should ignore an installer-supplied earnings value", func() {
			earnings := int64(999999)
			rep, err := service.EditReport(ctx, installer, reportID, report.EditReportDTO{Earnings: &earnings})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Earnings).To(Equal(int64(1000)))
		})

		It("should deny edits on someone else's report", func() {
			stranger := report.Actor{ID: 99}
			_, err := service.EditReport(ctx, stranger, reportID, report.EditReportDTO{})
			Expect(err).To(MatchError(report.ErrNotEditable))
		})

		It("should refuse owner edits once the report is approved", func() {
			status := report.StatusPendingApproval
			_, err := service.EditReport(ctx, installer, reportID, report.EditReportDTO{Status: &status})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Approve(ctx, admin, reportID, report.ApproveReportDTO{})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.EditReport(ctx, installer, reportID, report.EditReportDTO{})
			Expect(err).To(MatchError(report.ErrNotEditable))
		})

		It("should let an admin override earnings and force any status", func() {
			earnings := int64(7777)
			status := report.StatusCompleted
			rep, err := service.EditReport(ctx, admin, reportID, report.EditReportDTO{
				Earnings: &earnings,
				Status:   &status,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Earnings).To(Equal(int64(7777)))
			Expect(rep.Status).To(Equal(report.StatusCompleted))
			Expect(rep.Completed).To(BeTrue())
		})

		It("should report a missing id", func() {
			_, err := service.EditReport(ctx, admin, 12345, report.EditReportDTO{})
			Expect(err).To(MatchError(report.ErrReportNotFound))
		})
	})

	Describe("ListPending", func() {
		It("should deny installers", func() {
			_, err := service.ListPending(installer)
			Expect(err).To(MatchError(report.ErrAccessDenied))
		})

		It("should return only pending reports", func() {
			for i, status := range []string{report.StatusDraft, report.StatusPendingApproval} {
				day := &reportDatamodel.ScheduledDay{
					UserID: int64(20 + i),
					Date:   today,
					Status: status,
				}
				Expect(repo.Create(day)).To(Succeed())
			}

			pending, err := service.ListPending(admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].Status).To(Equal(report.StatusPendingApproval))
		})
	})

	Describe("ListReports", func() {
		BeforeEach(func() {
			for _, userID := range []int64{10, 11} {
				day := &reportDatamodel.ScheduledDay{
					UserID: userID,
					Date:   today,
					Status: report.StatusDraft,
				}
				Expect(repo.Create(day)).To(Succeed())
			}
		})

		It("should pin installers to their own reports", func() {
			other := int64(11)
			reports, err := service.ListReports(installer, &other, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].UserID).To(Equal(installer.ID))
		})

		It("should let admins see everything", func() {
			reports, err := service.ListReports(admin, nil, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(2))
		})

		It("should narrow the list to one date", func() {
			tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
			Expect(repo.Create(&reportDatamodel.ScheduledDay{
				UserID: installer.ID,
				Date:   tomorrow,
				Status: report.StatusDraft,
			})).To(Succeed())

			reports, err := service.ListReports(installer, nil, tomorrow)
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].Date).To(Equal(tomorrow))

			reports, err = service.ListReports(admin, nil, "1999-01-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(BeEmpty())
		})
	})
})

var _ = Describe("ParseWorkLog", func() {
	It("should reject malformed item ids", func() {
		_, err := report.ParseWorkLog([]report.WorkLogItemDTO{{ItemID: "abc", Quantity: 1}})
		Expect(err).To(HaveOccurred())
	})

	It("should reject non-positive coefficients", func() {
		zero := 0.0
		_, err := report.ParseWorkLog([]report.WorkLogItemDTO{{ItemID: "1", Quantity: 1, Coefficient: &zero}})
		Expect(err).To(HaveOccurred())
	})

	It("should silently drop non-positive quantities", func() {
		wl, err := report.ParseWorkLog([]report.WorkLogItemDTO{
			{ItemID: "1", Quantity: 0},
			{ItemID: "2", Quantity: 2},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(wl).To(HaveLen(1))
	})
})

var _ = Describe("ParseObjectID", func() {
	ptr := func(s string) *string { return &s }

	It("should parse a numeric id", func() {
		id := report.ParseObjectID(ptr("42"))
		Expect(id).NotTo(BeNil())
		Expect(*id).To(Equal(int64(42)))
	})

	It("should drop nil, empty and malformed values", func() {
		Expect(report.ParseObjectID(nil)).To(BeNil())
		Expect(report.ParseObjectID(ptr(""))).To(BeNil())
		Expect(report.ParseObjectID(ptr("abc"))).To(BeNil())
		Expect(report.ParseObjectID(ptr("-3"))).To(BeNil())
	})
})

