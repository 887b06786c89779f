package jobs

import (
	"context"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/logger"
)

const overdueReportPageSize = 100

// SweepExpiredReservations cancels pending reservations past their window
// and releases the copies they held.
func (jr *JobRunner) SweepExpiredReservations() {
	jr.runWithRecovery("SweepExpiredReservations", func() {
		ctx := context.Background()

		report, err := jr.reservations.SweepExpired(ctx)
		if err != nil {
			logger.Error("Failed to sweep expired reservations", "error", err)
			return
		}

		logger.Info("Swept expired reservations", "count", report.CleanedCount)
		for _, swept := range report.Cleaned {
			logger.Debug("Cancelled expired reservation",
				"transaction_id", swept.TransactionID,
				"member_id", swept.MemberID,
				"book_id", swept.BookID,
				"book_copy_id", swept.BookCopyID)
		}
	})
}

// ReportOverdueLoans logs every open loan past its due date with the fine
// it would carry if returned now.
func (jr *JobRunner) ReportOverdueLoans() {
	jr.runWithRecovery("ReportOverdueLoans", func() {
		ctx := context.Background()

		var (
			count     int
			totalFine int64
		)
		for page := int32(1); ; page++ {
			loans, total, err := jr.borrows.ListLoans(ctx, domain.LoanFilter{
				Status: domain.LoanStatusOverdue,
				Page:   page,
				Limit:  overdueReportPageSize,
			})
			if err != nil {
				logger.Error("Failed to list overdue loans", "page", page, "error", err)
				return
			}

			for _, loan := range loans {
				count++
				totalFine += int64(loan.ProjectedFine)
				logger.Debug("Overdue loan",
					"transaction_id", loan.ID,
					"member_id", loan.MemberID,
					"book_copy_id", loan.BookCopyID,
					"overdue_days", loan.OverdueDays,
					"projected_fine", loan.ProjectedFine)
			}

			if len(loans) == 0 || int64(page)*overdueReportPageSize >= int64(total) {
				break
			}
		}

		logger.Info("Reported overdue loans", "count", count, "projected_fines", totalFine)
	})
}
