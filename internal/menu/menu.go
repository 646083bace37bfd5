// Package menu implements the interactive console over the loaded database.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"jobmate/vacancy-loader/internal/model"
)

// Queries is the read side the menu needs. *store.QueryService satisfies it.
type Queries interface {
	CompaniesAndVacancyCounts(ctx context.Context) ([]model.CompanyVacancyCount, error)
	AllVacancies(ctx context.Context) ([]model.VacancyListing, error)
	AverageSalaryByCompany(ctx context.Context) ([]model.CompanyAverageSalary, error)
	VacanciesAboveAverageSalary(ctx context.Context) ([]model.Vacancy, error)
	VacanciesByKeyword(ctx context.Context, keyword string) ([]model.Vacancy, error)
}

const (
	choiceCompanies = iota + 1
	choiceAllVacancies
	choiceAverageSalary
	choiceAboveAverage
	choiceKeyword
	choiceExit
)

const banner = `
Choose an action:
  1. Companies and their vacancy count
  2. All vacancies with company, salary and link
  3. Average salary per company
  4. Vacancies paid above the overall average
  5. Vacancies whose title contains a keyword
  6. Exit
`

// Menu reads numbered choices from in and prints reports to out.
type Menu struct {
	q   Queries
	in  io.Reader
	out io.Writer
}

// New constructs a Menu.
func New(q Queries, in io.Reader, out io.Writer) *Menu {
	return &Menu{q: q, in: in, out: out}
}

// Run loops until the user picks Exit, input reaches EOF or ctx is
// cancelled. Invalid input and query failures are reported and the menu
// prompts again; only a cancelled ctx is returned as an error.
func (m *Menu) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(m.in, done)

	for {
		fmt.Fprint(m.out, banner)
		line, ok, err := m.prompt(ctx, lines, "Choice: ")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if line.err != nil {
			fmt.Fprintf(m.out, "Error: %v, please enter an integer.\n", line.err)
			continue
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line.text))
		if err != nil {
			fmt.Fprintln(m.out, "Error: invalid input, please enter an integer.")
			continue
		}

		switch choice {
		case choiceCompanies:
			m.report(m.companies(ctx))
		case choiceAllVacancies:
			m.report(m.allVacancies(ctx))
		case choiceAverageSalary:
			m.report(m.averageSalary(ctx))
		case choiceAboveAverage:
			m.report(m.aboveAverage(ctx))
		case choiceKeyword:
			keyword, ok, err := m.prompt(ctx, lines, "Keyword: ")
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if keyword.err != nil {
				fmt.Fprintf(m.out, "Error: %v\n", keyword.err)
				continue
			}
			m.report(m.byKeyword(ctx, keyword.text))
		case choiceExit:
			fmt.Fprintln(m.out, "Bye.")
			return nil
		default:
			fmt.Fprintf(m.out, "Error: invalid choice %d, please pick a number from 1 to 6.\n", choice)
		}
	}
}

// maxLineBytes bounds one line of input. Longer lines are discarded and
// reported as invalid input.
const maxLineBytes = 4096

var errLineTooLong = fmt.Errorf("input line longer than %d bytes", maxLineBytes)

type inputLine struct {
	text string
	err  error
}

// prompt prints label and waits for the next line. ok is false on EOF.
func (m *Menu) prompt(ctx context.Context, lines <-chan inputLine, label string) (inputLine, bool, error) {
	fmt.Fprint(m.out, label)
	select {
	case <-ctx.Done():
		return inputLine{}, false, ctx.Err()
	case line, ok := <-lines:
		return line, ok, nil
	}
}

// readLines feeds lines from r into a channel that is closed on EOF, so
// that a blocked read never keeps Run from observing cancellation.
func readLines(r io.Reader, done <-chan struct{}) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			line, ok, err := readLine(br)
			if ok {
				select {
				case ch <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Warn("read menu input", "err", err)
				}
				return
			}
		}
	}()
	return ch
}

// readLine reads up to the next newline. A line over maxLineBytes is
// consumed in full but returned with errLineTooLong instead of its text.
// ok is false when nothing was read before err.
func readLine(br *bufio.Reader) (line inputLine, ok bool, err error) {
	var buf []byte
	for {
		chunk, rerr := br.ReadSlice('\n')
		if len(chunk) > 0 {
			ok = true
		}
		if line.err == nil {
			if len(buf)+len(chunk) > maxLineBytes+2 {
				line.err = errLineTooLong
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		if line.err == nil {
			line.text = strings.TrimRight(string(buf), "\r\n")
		}
		return line, ok, rerr
	}
}

func (m *Menu) report(table pterm.TableData, err error) {
	if err != nil {
		fmt.Fprintf(m.out, "Error: %v\n", err)
		return
	}
	if len(table) <= 1 {
		fmt.Fprintln(m.out, "No results.")
		return
	}
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(table).Srender()
	if err != nil {
		fmt.Fprintf(m.out, "Error: render table: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, rendered)
	fmt.Fprintf(m.out, "%d row(s)\n", len(table)-1)
}

func (m *Menu) companies(ctx context.Context) (pterm.TableData, error) {
	rows, err := m.q.CompaniesAndVacancyCounts(ctx)
	if err != nil {
		return nil, err
	}
	table := pterm.TableData{{"Company", "Vacancies"}}
	for _, r := range rows {
		table = append(table, []string{r.CompanyName, humanize.Comma(r.VacancyCount)})
	}
	return table, nil
}

func (m *Menu) allVacancies(ctx context.Context) (pterm.TableData, error) {
	rows, err := m.q.AllVacancies(ctx)
	if err != nil {
		return nil, err
	}
	table := pterm.TableData{{"Vacancy", "Company", "Salary", "Link"}}
	for _, r := range rows {
		table = append(table, []string{r.Title, r.CompanyName, FormatSalary(r.Salary), r.Link})
	}
	return table, nil
}

func (m *Menu) averageSalary(ctx context.Context) (pterm.TableData, error) {
	rows, err := m.q.AverageSalaryByCompany(ctx)
	if err != nil {
		return nil, err
	}
	table := pterm.TableData{{"Company", "Average salary"}}
	for _, r := range rows {
		table = append(table, []string{r.CompanyName, FormatSalary(r.AverageSalary)})
	}
	return table, nil
}

func (m *Menu) aboveAverage(ctx context.Context) (pterm.TableData, error) {
	rows, err := m.q.VacanciesAboveAverageSalary(ctx)
	if err != nil {
		return nil, err
	}
	return vacancyTable(rows), nil
}

func (m *Menu) byKeyword(ctx context.Context, keyword string) (pterm.TableData, error) {
	rows, err := m.q.VacanciesByKeyword(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return vacancyTable(rows), nil
}

func vacancyTable(rows []model.Vacancy) pterm.TableData {
	table := pterm.TableData{{"ID", "Vacancy", "Salary", "Experience", "Link"}}
	for _, v := range rows {
		experience := ""
		if v.Experience != nil {
			experience = *v.Experience
		}
		table = append(table, []string{
			strconv.FormatInt(v.ID, 10), v.Title, FormatSalary(v.Salary), experience, v.Link,
		})
	}
	return table
}

// FormatSalary renders a salary with thousands separators, or "n/a".
func FormatSalary(s *int64) string {
	if s == nil {
		return "n/a"
	}
	return humanize.Comma(*s)
}
