package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestComputeUtilizationBands(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		worked float64
		band   UtilizationBand
	}{
		{worked: 170, band: Overutilized},
		{worked: 160, band: NearCapacity},
		{worked: 136, band: NearCapacity},
		{worked: 120, band: Optimal},
		{worked: 112, band: Optimal},
		{worked: 100, band: Underutilized},
	}
	for _, tc := range cases {
		u := ComputeUtilization(id, tc.worked, 160)
		require.Equal(t, tc.band, u.Band, "worked=%v", tc.worked)
	}
}

func TestComputeUtilizationClassifiesBeforeRounding(t *testing.T) {
	u := ComputeUtilization(uuid.New(), 100.004, 100)
	require.Equal(t, 100.0, u.Percentage)
	require.Equal(t, Overutilized, u.Band)

	u = ComputeUtilization(uuid.New(), 100, 100)
	require.Equal(t, NearCapacity, u.Band)
}

func TestComputeUtilizationNoCapacity(t *testing.T) {
	u := ComputeUtilization(uuid.New(), 40, 0)
	require.Equal(t, 0.0, u.Percentage)
	require.True(t, u.NoCapacityData)
	require.Equal(t, NoCapacity, u.Band)
}

func TestHoursByEmployee(t *testing.T) {
	anna := Employee{ID: uuid.New(), FirstName: "Anna", LastName: "Bianchi"}
	luca := Employee{ID: uuid.New(), FirstName: "Luca", LastName: "Neri"}
	p1, p2 := uuid.New(), uuid.New()
	entries := []TimeEntry{
		{EmployeeID: anna.ID, ProjectID: p1, Hours: Amount(6)},
		{EmployeeID: anna.ID, ProjectID: p2, Hours: Amount(2)},
		{EmployeeID: luca.ID, ProjectID: p1, Hours: Amount(10)},
		{EmployeeID: luca.ID, ProjectID: p1, Hours: nil},
	}
	rows := HoursByEmployee(entries, []Employee{anna, luca})
	require.Len(t, rows, 2)
	require.Equal(t, "Neri Luca", rows[0].EmployeeName)
	require.Equal(t, 10.0, rows[0].Hours)
	require.Equal(t, 1, rows[0].Projects)
	require.Equal(t, 8.0, rows[1].Hours)
	require.Equal(t, 2, rows[1].Projects)

	idle := uuid.New()
	util := UtilizationOf(rows, map[uuid.UUID]float64{luca.ID: 10, idle: 160})
	require.Len(t, util, 3)
	require.Equal(t, 100.0, util[0].Percentage)
	require.True(t, util[1].NoCapacityData)
	require.Equal(t, idle, util[2].EmployeeID)
	require.Equal(t, Underutilized, util[2].Band)
}

func TestCapacityForRange(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	weekly := map[uuid.UUID]float64{a: 40, b: 0}

	got := CapacityForRange(weekly, DateRange{From: "2025-03-01", To: "2025-03-28"}, "2025-06-30", nil)
	require.Equal(t, map[uuid.UUID]float64{a: 160}, got)

	entries := []TimeEntry{{WorkDate: "2025-06-17"}, {WorkDate: "2025-06-24"}}
	got = CapacityForRange(weekly, DateRange{}, "2025-06-30", entries)
	require.Equal(t, 80.0, got[a])

	require.Empty(t, CapacityForRange(weekly, DateRange{From: "2025-04-01", To: "2025-03-01"}, "2025-06-30", nil))
}
