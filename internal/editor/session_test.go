package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal/report"
)

func TestEditor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Editor Suite")
}

type savedCall struct {
	date     string
	status   string
	objectID *int64
	workLog  report.WorkLog
}

// fakeStore is an in-memory Store with scriptable failures.
type fakeStore struct {
	mu sync.Mutex

	snapshots map[string]*Snapshot
	nextID    int64

	fetchErr      error
	saveErr       error
	transitionErr error

	saves       []savedCall
	transitions []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: make(map[string]*Snapshot),
		nextID:    1,
	}
}

func (f *fakeStore) Fetch(_ context.Context, date string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshots[date], nil
}

func (f *fakeStore) Save(_ context.Context, date, status string, objectID *int64, workLog report.WorkLog) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves = append(f.saves, savedCall{date: date, status: status, objectID: objectID, workLog: workLog})
	if f.saveErr != nil {
		return nil, f.saveErr
	}

	snap := f.snapshots[date]
	id := f.nextID
	if snap != nil {
		id = snap.ReportID
	} else {
		f.nextID++
	}

	var earnings int64
	for _, e := range workLog.Filtered() {
		earnings += int64(e.Quantity) * 100
	}

	saved := &Snapshot{
		ReportID: id,
		Status:   status,
		Earnings: earnings,
		ObjectID: objectID,
		WorkLog:  workLog.Filtered(),
	}
	f.snapshots[date] = saved
	return saved, nil
}

func (f *fakeStore) Transition(_ context.Context, reportID int64, action string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transitions = append(f.transitions, action)
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	for _, snap := range f.snapshots {
		if snap.ReportID == reportID {
			out := *snap
			out.Status = report.StatusApprovedWaitingPayment
			return &out, nil
		}
	}
	return nil, errors.New("report not found")
}

var _ = Describe("Session", func() {
	var (
		store   *fakeStore
		session *Session
		ctx     context.Context
		clock   time.Time
	)

	const date = "2025-08-10"

	advance := func(d time.Duration) {
		clock = clock.Add(d)
	}

	intPtr := func(v int64) *int64 { return &v }

	BeforeEach(func() {
		store = newFakeStore()
		session = NewSession(store, Config{})
		ctx = context.Background()

		clock = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
		session.now = func() time.Time { return clock }
	})

	Describe("SelectDate", func() {
		It("should reject malformed dates", func() {
			Expect(session.SelectDate(ctx, "10.08.2025")).NotTo(Succeed())
		})

		It("should initialize an empty draft when the server has no report", func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())

			view := session.View()
			Expect(view.ReportID).To(BeZero())
			Expect(view.Status).To(Equal(report.StatusDraft))
			Expect(view.WorkLog).To(BeEmpty())
			Expect(session.Dirty()).To(BeFalse())
		})

		It("should adopt the server snapshot when one exists", func() {
			store.snapshots[date] = &Snapshot{
				ReportID: 7,
				Status:   report.StatusPendingApproval,
				Earnings: 500,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 5}},
			}

			Expect(session.SelectDate(ctx, date)).To(Succeed())

			view := session.View()
			Expect(view.ReportID).To(Equal(int64(7)))
			Expect(view.Status).To(Equal(report.StatusPendingApproval))
			Expect(view.Earnings).To(Equal(int64(500)))
			Expect(session.Dirty()).To(BeFalse())
		})

		It("should cancel a pending autosave", func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())
			session.EditQuantity(1, 2)

			Expect(session.SelectDate(ctx, "2025-08-11")).To(Succeed())
			advance(time.Minute)
			Expect(session.AutosaveDue()).To(BeFalse())
		})
	})

	Describe("local edits", func() {
		BeforeEach(func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())
		})

		It("should mark the session dirty", func() {
			session.EditQuantity(1, 2)
			Expect(session.Dirty()).To(BeTrue())
		})

		It("should not be dirty after editing back to the saved content", func() {
			session.EditQuantity(1, 2)
			session.EditQuantity(1, 0)
			Expect(session.Dirty()).To(BeFalse())
		})

		It("should not schedule autosave when the report is no longer editable", func() {
			store.snapshots[date] = &Snapshot{
				ReportID: 3,
				Status:   report.StatusApprovedWaitingPayment,
			}
			Expect(session.SelectDate(ctx, date)).To(Succeed())

			session.EditQuantity(1, 2)
			advance(time.Minute)
			Expect(session.AutosaveDue()).To(BeFalse())
		})
	})

	Describe("merge on ApplySnapshot", func() {
		BeforeEach(func() {
			store.snapshots[date] = &Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			}
			Expect(session.SelectDate(ctx, date)).To(Succeed())
		})

		It("should suppress a server work log while the user is mid-edit", func() {
			session.EditQuantity(1, 5)

			advance(1500 * time.Millisecond)
			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 9}},
			})

			view := session.View()
			Expect(view.WorkLog[0].Quantity).To(Equal(5))
		})

		It("should adopt the server work log once the cooldown elapsed", func() {
			session.EditQuantity(1, 5)

			advance(2001 * time.Millisecond)
			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 9}},
			})

			view := session.View()
			Expect(view.WorkLog[0].Quantity).To(Equal(9))
			Expect(session.Dirty()).To(BeFalse())
		})

		It("should always adopt status and earnings", func() {
			session.EditQuantity(1, 5)

			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusApprovedWaitingPayment,
				Earnings: 777,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			})

			view := session.View()
			Expect(view.Status).To(Equal(report.StatusApprovedWaitingPayment))
			Expect(view.Earnings).To(Equal(int64(777)))
			// the local quantity survives the merge
			Expect(view.WorkLog[0].Quantity).To(Equal(5))
		})

		It("should gate the site change behind the same cooldown", func() {
			session.SelectObject(intPtr(4))

			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				ObjectID: intPtr(9),
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			})

			view := session.View()
			Expect(view.ObjectID).NotTo(BeNil())
			Expect(*view.ObjectID).To(Equal(int64(4)))

			advance(2001 * time.Millisecond)
			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				ObjectID: intPtr(9),
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			})

			view = session.View()
			Expect(*view.ObjectID).To(Equal(int64(9)))
		})

		It("should adopt an identical work log without touching local edit state", func() {
			session.ApplySnapshot(&Snapshot{
				ReportID: 3,
				Status:   report.StatusDraft,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			})
			Expect(session.Dirty()).To(BeFalse())
		})
	})

	Describe("autosave", func() {
		BeforeEach(func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())
		})

		It("should not be due before the debounce delay", func() {
			session.EditQuantity(1, 2)

			advance(2 * time.Second)
			Expect(session.AutosaveDue()).To(BeFalse())
		})

		It("should be due after the debounce delay with dirty content", func() {
			session.EditQuantity(1, 2)

			advance(2501 * time.Millisecond)
			Expect(session.AutosaveDue()).To(BeTrue())
		})

		It("should push the deadline out on every edit", func() {
			session.EditQuantity(1, 2)
			advance(2 * time.Second)
			session.EditQuantity(1, 3)
			advance(2 * time.Second)
			Expect(session.AutosaveDue()).To(BeFalse())

			advance(501 * time.Millisecond)
			Expect(session.AutosaveDue()).To(BeTrue())
		})

		It("should always save as draft", func() {
			session.EditQuantity(1, 2)
			advance(3 * time.Second)

			session.Autosave(ctx)

			Expect(store.saves).To(HaveLen(1))
			Expect(store.saves[0].status).To(Equal(report.StatusDraft))
			Expect(session.Dirty()).To(BeFalse())
			Expect(session.SaveIndicator()).To(Equal(SaveSaved))
		})

		It("should keep the dirty state when the save fails", func() {
			session.EditQuantity(1, 2)
			advance(3 * time.Second)

			store.saveErr = errors.New("boom")
			session.Autosave(ctx)

			Expect(session.Dirty()).To(BeTrue())
			Expect(session.SaveIndicator()).To(Equal(SaveError))
		})

		It("should clear the saved indicator after its TTL", func() {
			session.EditQuantity(1, 2)
			advance(3 * time.Second)
			session.Autosave(ctx)
			Expect(session.SaveIndicator()).To(Equal(SaveSaved))

			advance(3001 * time.Millisecond)
			session.Tick()
			Expect(session.SaveIndicator()).To(Equal(SaveIdle))
		})
	})

	Describe("manual saves", func() {
		BeforeEach(func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())
		})

		It("should submit with pending_approval status", func() {
			session.EditQuantity(1, 2)
			Expect(session.Submit(ctx)).To(Succeed())

			Expect(store.saves).To(HaveLen(1))
			Expect(store.saves[0].status).To(Equal(report.StatusPendingApproval))
			Expect(session.View().Status).To(Equal(report.StatusPendingApproval))
		})

		It("should surface save errors", func() {
			store.saveErr = errors.New("boom")
			Expect(session.SaveDraft(ctx)).NotTo(Succeed())
			Expect(session.SaveIndicator()).To(Equal(SaveError))
		})

		It("should reject a second write while one is outstanding", func() {
			session.saveInFlight = true
			Expect(session.SaveDraft(ctx)).To(MatchError(ErrSaveInFlight))
			Expect(session.Submit(ctx)).To(MatchError(ErrSaveInFlight))
			Expect(session.Transition(ctx, ActionApprove)).To(MatchError(ErrSaveInFlight))
		})

		It("should cancel the pending autosave", func() {
			session.EditQuantity(1, 2)
			Expect(session.SaveDraft(ctx)).To(Succeed())

			advance(time.Minute)
			Expect(session.AutosaveDue()).To(BeFalse())
		})
	})

	Describe("Transition", func() {
		It("should refuse when no report is loaded", func() {
			Expect(session.SelectDate(ctx, date)).To(Succeed())
			Expect(session.Transition(ctx, ActionApprove)).NotTo(Succeed())
		})

		It("should adopt the transitioned snapshot", func() {
			store.snapshots[date] = &Snapshot{
				ReportID: 3,
				Status:   report.StatusPendingApproval,
				WorkLog:  report.WorkLog{{ItemID: 1, Quantity: 1}},
			}
			Expect(session.SelectDate(ctx, date)).To(Succeed())

			Expect(session.Transition(ctx, ActionApprove)).To(Succeed())
			Expect(store.transitions).To(Equal([]string{ActionApprove}))
			Expect(session.View().Status).To(Equal(report.StatusApprovedWaitingPayment))
		})
	})
})
