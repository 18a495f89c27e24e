package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/commesse/internal/finance"
)

var (
	tenantA  = uuid.MustParse("aaaaaaaa-1111-1111-1111-111111111111")
	tenantB  = uuid.MustParse("bbbbbbbb-1111-1111-1111-111111111111")
	noteID   = uuid.MustParse("cccccccc-1111-1111-1111-111111111111")
	employee = uuid.MustParse("dddddddd-1111-1111-1111-111111111111")
)

func fixtureSet(tenant uuid.UUID) finance.RecordSet {
	client := finance.Party{ID: uuid.New(), TenantID: tenant, LegalForm: finance.LegalEntity, CompanyName: "Edilnord Srl"}
	project := finance.Project{ID: uuid.New(), TenantID: tenant, Title: "Cantiere Via Roma", ClientID: client.ID, Budget: finance.Amount(1000)}
	return finance.RecordSet{
		TenantID:  tenant,
		Clients:   []finance.Party{client},
		Projects:  []finance.Project{project},
		Employees: []finance.Employee{{ID: employee, TenantID: tenant, FirstName: "Luca", LastName: "Verdi"}},
		Issued: []finance.IssuedInvoice{{
			ID: uuid.New(), TenantID: tenant, Number: "1/2024", ClientID: client.ID, ProjectID: &project.ID,
			IssueDate: "2024-03-10", NetAmount: finance.Amount(1000), TaxRate: finance.Amount(22),
			TaxAmount: finance.Amount(220), TotalAmount: finance.Amount(1220), PaymentStatus: finance.IssuedPaid,
		}},
		Received: []finance.ReceivedInvoice{{
			ID: uuid.New(), TenantID: tenant, Number: "A-7", SupplierID: uuid.New(), ProjectID: &project.ID,
			IssueDate: "2024-03-12", NetAmount: finance.Amount(400), TaxRate: finance.Amount(22),
			TaxAmount: finance.Amount(88), TotalAmount: finance.Amount(488), PaymentStatus: finance.ReceivedPaid,
		}},
		ExpenseNotes: []finance.ExpenseNote{{
			ID: noteID, TenantID: tenant, EmployeeID: employee, ProjectID: &project.ID,
			NoteDate: "2024-03-20", Amount: finance.Amount(50), Status: finance.ExpensePendingApproval,
		}},
		TimeEntries: []finance.TimeEntry{{
			TenantID: tenant, EmployeeID: employee, ProjectID: project.ID, WorkDate: "2024-03-05", Hours: finance.Amount(100),
		}},
	}
}

type mockRepo struct {
	mu        sync.Mutex
	sets      map[uuid.UUID]finance.RecordSet
	weekly    map[uuid.UUID]float64
	loadCalls atomic.Int32
	lastRange finance.DateRange
	loadDelay time.Duration
	loadErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		sets: map[uuid.UUID]finance.RecordSet{
			tenantA: fixtureSet(tenantA),
			tenantB: fixtureSet(tenantB),
		},
		weekly: map[uuid.UUID]float64{employee: 40},
	}
}

func (m *mockRepo) LoadRecordSet(_ context.Context, tenantID uuid.UUID, r finance.DateRange) (finance.RecordSet, error) {
	m.loadCalls.Add(1)
	if m.loadDelay > 0 {
		time.Sleep(m.loadDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRange = r
	if m.loadErr != nil {
		return finance.RecordSet{}, m.loadErr
	}
	return m.sets[tenantID], nil
}

func (m *mockRepo) WeeklyHours(context.Context, uuid.UUID) (map[uuid.UUID]float64, error) {
	return m.weekly, nil
}

func (m *mockRepo) setStatus(tenant, id uuid.UUID, status finance.ExpenseStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.sets[tenant]
	notes := make([]finance.ExpenseNote, len(set.ExpenseNotes))
	copy(notes, set.ExpenseNotes)
	for i := range notes {
		if notes[i].ID == id {
			notes[i].Status = status
		}
	}
	set.ExpenseNotes = notes
	m.sets[tenant] = set
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr, client
}

// failingCommands makes the named Redis commands fail while the rest reach
// the server.
type failingCommands map[string]bool

func (f failingCommands) DialHook(next redis.DialHook) redis.DialHook { return next }

func (f failingCommands) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if f[cmd.Name()] {
			err := errors.New("OOM command not allowed when used memory > 'maxmemory'")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (f failingCommands) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
