package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/smartinstall/field-reports/internal"
	"github.com/xuri/excelize/v2"
)

// UserInfo is the installer identity printed on the summary sheet.
type UserInfo struct {
	ID   int64
	Name string
	Role string
}

// SiteInfo is the object name and address printed per history row.
type SiteInfo struct {
	Name    string
	Address string
}

// Directory resolves the names the workbook needs. The catalog, site and
// user services provide this through a composite in the server wiring.
type Directory interface {
	UserInfo(id int64) (*UserInfo, error)
	SiteInfo(id int64) (*SiteInfo, error)
	ItemNames() (map[int64]string, error)
}

type WorkLine struct {
	Name     string
	Quantity int
}

type DaySummary struct {
	Date          string
	Status        string
	Earnings      int64
	ObjectName    string
	ObjectAddress string
	Works         []WorkLine
}

// UserSummary is the full earnings history for one installer.
type UserSummary struct {
	GeneratedAt   time.Time
	User          UserInfo
	TotalDays     int
	TotalEarnings int64
	Days          []DaySummary
}

// Exporter builds XLSX earnings workbooks for admins.
type Exporter struct {
	repo      RepositoryAPI
	directory Directory
}

func NewExporter(repo RepositoryAPI, directory Directory) *Exporter {
	return &Exporter{repo: repo, directory: directory}
}

// BuildUserSummary collects every report of the user, oldest first, and
// resolves item and object names. Deleted catalog items keep their lines
// with a placeholder name so quantities stay visible.
func (e *Exporter) BuildUserSummary(userID int64) (*UserSummary, error) {
	user, err := e.directory.UserInfo(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	rows, err := e.repo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list reports for user %d: %w", userID, err)
	}

	names, err := e.directory.ItemNames()
	if err != nil {
		return nil, fmt.Errorf("load catalog names: %w", err)
	}

	summary := &UserSummary{
		GeneratedAt: time.Now().UTC(),
		User:        *user,
	}

	for _, row := range rows {
		day := DaySummary{
			Date:     row.Date,
			Status:   EffectiveStatus(row.Status, row.Completed),
			Earnings: row.Earnings,
		}
		if row.ObjectID != nil {
			site, err := e.directory.SiteInfo(*row.ObjectID)
			if err != nil {
				return nil, err
			}
			if site != nil {
				day.ObjectName = site.Name
				day.ObjectAddress = site.Address
			}
		}
		for _, item := range row.WorkLog {
			name, ok := names[item.PriceItemID]
			if !ok {
				name = "Услуга удалена"
			}
			day.Works = append(day.Works, WorkLine{Name: name, Quantity: item.Quantity})
		}
		summary.TotalDays++
		summary.TotalEarnings += row.Earnings
		summary.Days = append(summary.Days, day)
	}

	return summary, nil
}

// WriteXLSX renders the summary as a two-sheet workbook: totals on
// "Summary", one row per report on "History".
func (e *Exporter) WriteXLSX(w io.Writer, summary *UserSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}

	summaryRows := [][]interface{}{
		{"Поле", "Значение"},
		{"Пользователь", summary.User.Name},
		{"Роль", summary.User.Role},
		{"Период", "Все время"},
		{"Кол-во дней", summary.TotalDays},
		{"Сумма", summary.TotalEarnings},
		{"Сформирован", summary.GeneratedAt.Format(time.RFC3339)},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	const historySheet = "History"
	if _, err := f.NewSheet(historySheet); err != nil {
		return err
	}
	header := []interface{}{"Дата", "Объект", "Адрес", "Статус", "Заработок", "Работы"}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return err
	}

	if len(summary.Days) == 0 {
		empty := []interface{}{"Нет данных", "", "", "", "", ""}
		return writeAndFlush(f, historySheet, 2, [][]interface{}{empty}, w)
	}

	rows := make([][]interface{}, 0, len(summary.Days))
	for _, day := range summary.Days {
		rows = append(rows, []interface{}{
			day.Date,
			orDash(day.ObjectName),
			orDash(day.ObjectAddress),
			day.Status,
			day.Earnings,
			worksCell(day.Works),
		})
	}
	return writeAndFlush(f, historySheet, 2, rows, w)
}

func writeAndFlush(f *excelize.File, sheet string, startRow int, rows [][]interface{}, w io.Writer) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func worksCell(works []WorkLine) string {
	if len(works) == 0 {
		return "Нет данных"
	}
	parts := make([]string, 0, len(works))
	for _, line := range works {
		parts = append(parts, fmt.Sprintf("%s x%d", line.Name, line.Quantity))
	}
	return strings.Join(parts, "; ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
