package editor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/report"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		client *Client
		ctx    context.Context
	)

	const date = "2025-08-10"

	reportJSON := func(id int64, date, status string) report.ReportDTO {
		objectID := "4"
		return report.ReportDTO{
			ID:       &id,
			UserID:   10,
			Date:     date,
			ObjectID: &objectID,
			Status:   status,
			Earnings: 500,
			WorkLog: []report.WorkLogItemDTO{
				{ItemID: "1", Quantity: 5},
			},
		}
	}

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	Describe("Fetch", func() {
		It("should return the snapshot matching the date", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/schedule"))
				Expect(r.URL.Query().Get("date")).To(Equal(date))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))

				json.NewEncoder(w).Encode([]report.ReportDTO{
					reportJSON(7, date, report.StatusPendingApproval),
				})
			}))
			client = NewClient(server.URL)
			client.SetAccessToken("test-token")
			ctx = context.Background()

			snap, err := client.Fetch(ctx, date)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ReportID).To(Equal(int64(7)))
			Expect(snap.Status).To(Equal(report.StatusPendingApproval))
			Expect(snap.Earnings).To(Equal(int64(500)))
			Expect(*snap.ObjectID).To(Equal(int64(4)))
			Expect(snap.WorkLog).To(HaveLen(1))
		})

		It("should return nil when the date has no report", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]report.ReportDTO{})
			}))
			client = NewClient(server.URL)

			snap, err := client.Fetch(context.Background(), date)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap).To(BeNil())
		})

		It("should derive the status from the legacy completed flag", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				dto := reportJSON(7, date, "")
				dto.Completed = true
				json.NewEncoder(w).Encode([]report.ReportDTO{dto})
			}))
			client = NewClient(server.URL)

			snap, err := client.Fetch(context.Background(), date)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Status).To(Equal(report.StatusCompleted))
		})
	})

	Describe("Save", func() {
		It("should post the work log and adopt the response", func() {
			var received report.ReportDTO
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/v1/schedule/complete"))
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

				json.NewEncoder(w).Encode(reportJSON(7, date, report.StatusDraft))
			}))
			client = NewClient(server.URL)

			objectID := int64(4)
			snap, err := client.Save(context.Background(), date, report.StatusDraft, &objectID,
				report.WorkLog{{ItemID: 1, Quantity: 5}})
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ReportID).To(Equal(int64(7)))

			Expect(received.Date).To(Equal(date))
			Expect(received.Status).To(Equal(report.StatusDraft))
			Expect(received.WorkLog).To(HaveLen(1))
			Expect(received.WorkLog[0].ItemID).To(Equal("1"))
			Expect(*received.ObjectID).To(Equal("4"))
		})
	})

	Describe("Transition", func() {
		It("should post the action to the report path", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/schedule/7/approve"))
				json.NewEncoder(w).Encode(reportJSON(7, date, report.StatusApprovedWaitingPayment))
			}))
			client = NewClient(server.URL)

			snap, err := client.Transition(context.Background(), 7, ActionApprove)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Status).To(Equal(report.StatusApprovedWaitingPayment))
		})
	})

	Describe("error handling", func() {
		classify := func(status int, body string) *internal.AppError {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(body))
			}))
			defer server.Close()
			client = NewClient(server.URL)

			_, err := client.Fetch(context.Background(), date)
			Expect(err).To(HaveOccurred())

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			return appErr
		}

		It("should map API status codes", func() {
			Expect(classify(http.StatusNotFound, `{"message":"report not found"}`).StatusCode).To(Equal(http.StatusNotFound))
			Expect(classify(http.StatusForbidden, `{}`).StatusCode).To(Equal(http.StatusForbidden))
			Expect(classify(http.StatusUnauthorized, `{}`).StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should classify connection failures as network errors", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			url := server.URL
			server.Close()
			server = nil
			client = NewClient(url)

			_, err := client.Fetch(context.Background(), date)
			Expect(err).To(HaveOccurred())

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNetworkFailure))
		})
	})
})
