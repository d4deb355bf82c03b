package report_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smartinstall/field-reports/internal/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var _ = Describe("WorkLog", func() {
	Describe("Fingerprint", func() {
		It("should serialize sorted item and quantity pairs", func() {
			wl := report.WorkLog{
				{ItemID: 5, Quantity: 2},
				{ItemID: 1, Quantity: 3},
			}
			Expect(wl.Fingerprint()).To(Equal("1:3|5:2"))
		})

		It("should not depend on line order", func() {
			a := report.WorkLog{
				{ItemID: 1, Quantity: 3},
				{ItemID: 5, Quantity: 2},
			}
			b := report.WorkLog{
				{ItemID: 5, Quantity: 2},
				{ItemID: 1, Quantity: 3},
			}
			Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))
		})

		It("should collapse duplicate item lines by summing quantities", func() {
			split := report.WorkLog{
				{ItemID: 7, Quantity: 2},
				{ItemID: 7, Quantity: 3},
			}
			merged := report.WorkLog{
				{ItemID: 7, Quantity: 5},
			}
			Expect(split.Fingerprint()).To(Equal(merged.Fingerprint()))
		})

		It("should ignore zero and negative quantities", func() {
			wl := report.WorkLog{
				{ItemID: 1, Quantity: 0},
				{ItemID: 2, Quantity: -4},
				{ItemID: 3, Quantity: 1},
			}
			Expect(wl.Fingerprint()).To(Equal("3:1"))
		})

		It("should ignore coefficients", func() {
			a := report.WorkLog{{ItemID: 1, Quantity: 1, Coefficient: 1.5}}
			b := report.WorkLog{{ItemID: 1, Quantity: 1}}
			Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))
		})

		It("should return an empty string for an empty log", func() {
			Expect(report.WorkLog{}.Fingerprint()).To(Equal(""))
			Expect(report.WorkLog(nil).Fingerprint()).To(Equal(""))
		})
	})

	Describe("Earnings", func() {
		var prices report.PriceTable

		BeforeEach(func() {
			prices = report.PriceTable{
				1: {Price: 500, Coefficient: 1},
				2: {Price: 300, Coefficient: 1},
				3: {Price: 1500, Coefficient: 2},
			}
		})

		It("should multiply price, coefficient and quantity", func() {
			wl := report.WorkLog{{ItemID: 1, Quantity: 2}}
			Expect(wl.Earnings(prices)).To(Equal(int64(1000)))
		})

		It("should apply the line coefficient when set", func() {
			wl := report.WorkLog{{ItemID: 2, Quantity: 1, Coefficient: 1.5}}
			Expect(wl.Earnings(prices)).To(Equal(int64(450)))
		})

		It("should fall back to the catalog coefficient", func() {
			wl := report.WorkLog{{ItemID: 3, Quantity: 1}}
			Expect(wl.Earnings(prices)).To(Equal(int64(3000)))
		})

		It("should round the grand total once", func() {
			wl := report.WorkLog{
				{ItemID: 2, Quantity: 1, Coefficient: 1.175},
			}
			// 300 * 1.175 = 352.5, rounds to 353
			Expect(wl.Earnings(prices)).To(Equal(int64(353)))
		})

		It("should skip lines whose item left the catalog", func() {
			wl := report.WorkLog{
				{ItemID: 1, Quantity: 1},
				{ItemID: 99, Quantity: 10},
			}
			Expect(wl.Earnings(prices)).To(Equal(int64(500)))
		})

		It("should skip non-positive quantities", func() {
			wl := report.WorkLog{
				{ItemID: 1, Quantity: 0},
				{ItemID: 2, Quantity: -1},
			}
			Expect(wl.Earnings(prices)).To(Equal(int64(0)))
		})
	})

	Describe("ResolveCoefficient", func() {
		It("should prefer the line value", func() {
			entry := report.Entry{Coefficient: 2}
			info := report.PriceInfo{Coefficient: 3}
			Expect(report.ResolveCoefficient(entry, info)).To(Equal(2.0))
		})

		It("should fall back to the catalog value", func() {
			entry := report.Entry{}
			info := report.PriceInfo{Coefficient: 3}
			Expect(report.ResolveCoefficient(entry, info)).To(Equal(3.0))
		})

		It("should default to one", func() {
			Expect(report.ResolveCoefficient(report.Entry{}, report.PriceInfo{})).To(Equal(1.0))
		})
	})
})

var _ = Describe("EffectiveStatus", func() {
	It("should prefer a valid status over the legacy flag", func() {
		Expect(report.EffectiveStatus(report.StatusPendingApproval, true)).To(Equal(report.StatusPendingApproval))
	})

	It("should derive completed from the legacy flag when status is empty", func() {
		Expect(report.EffectiveStatus("", true)).To(Equal(report.StatusCompleted))
	})

	It("should default to draft", func() {
		Expect(report.EffectiveStatus("", false)).To(Equal(report.StatusDraft))
	})

	It("should treat an unknown status as absent", func() {
		Expect(report.EffectiveStatus("bogus", true)).To(Equal(report.StatusCompleted))
	})
})

var _ = Describe("Report state machine", func() {
	newReport := func(status string) *report.Report {
		return &report.Report{ID: 1, UserID: 2, Date: "2025-08-10", Status: status}
	}

	It("should submit from draft", func() {
		rep := newReport(report.StatusDraft)
		Expect(rep.Submit()).To(Succeed())
		Expect(rep.Status).To(Equal(report.StatusPendingApproval))
	})

	It("should allow resubmitting a pending report", func() {
		rep := newReport(report.StatusPendingApproval)
		Expect(rep.Submit()).To(Succeed())
		Expect(rep.Status).To(Equal(report.StatusPendingApproval))
	})

	It("should walk the full happy path", func() {
		rep := newReport(report.StatusDraft)
		Expect(rep.Submit()).To(Succeed())
		Expect(rep.Approve()).To(Succeed())
		Expect(rep.MarkPaid()).To(Succeed())
		Expect(rep.ConfirmPayment()).To(Succeed())
		Expect(rep.Status).To(Equal(report.StatusCompleted))
		Expect(rep.Completed).To(BeTrue())
	})

	It("should send a rejected report back to draft", func() {
		rep := newReport(report.StatusPendingApproval)
		rep.WorkLog = report.WorkLog{{ItemID: 1, Quantity: 2}}
		Expect(rep.Reject()).To(Succeed())
		Expect(rep.Status).To(Equal(report.StatusDraft))
		Expect(rep.WorkLog).To(HaveLen(1))
	})

	It("should refuse every transition from a wrong status", func() {
		Expect(newReport(report.StatusCompleted).Submit()).NotTo(Succeed())
		Expect(newReport(report.StatusDraft).Approve()).NotTo(Succeed())
		Expect(newReport(report.StatusDraft).Reject()).NotTo(Succeed())
		Expect(newReport(report.StatusPendingApproval).MarkPaid()).NotTo(Succeed())
		Expect(newReport(report.StatusApprovedWaitingPayment).ConfirmPayment()).NotTo(Succeed())
		Expect(newReport(report.StatusCompleted).ConfirmPayment()).NotTo(Succeed())
	})

	It("should keep status editable only in draft and pending", func() {
		Expect(report.IsEditable(report.StatusDraft)).To(BeTrue())
		Expect(report.IsEditable(report.StatusPendingApproval)).To(BeTrue())
		Expect(report.IsEditable(report.StatusApprovedWaitingPayment)).To(BeFalse())
		Expect(report.IsEditable(report.StatusPaidWaitingConfirmation)).To(BeFalse())
		Expect(report.IsEditable(report.StatusCompleted)).To(BeFalse())
	})

	It("should accrue earnings only after approval", func() {
		Expect(report.IsAccrued(report.StatusPendingApproval)).To(BeFalse())
		Expect(report.IsAccrued(report.StatusApprovedWaitingPayment)).To(BeTrue())
		Expect(report.IsAccrued(report.StatusPaidWaitingConfirmation)).To(BeTrue())
		Expect(report.IsAccrued(report.StatusCompleted)).To(BeTrue())
	})
})
