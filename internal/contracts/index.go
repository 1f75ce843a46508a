package contracts

import (
	"fmt"

	"github.com/ginjaninja78/fleet-payment-summary/internal/config"
	"github.com/samber/lo"
)

// NoContract is assigned to vehicles absent from the reference table.
const NoContract = "No Contract"

// Index maps vehicle identifiers to contract identifiers. It is immutable
// once built.
type Index struct {
	byVehicle map[string]string
}

// Duplicate records a vehicle listed under more than one contract.
type Duplicate struct {
	Vehicle string

	// Contracts lists every contract naming the vehicle, in table order.
	Contracts []string
}

// DuplicateVehicleError is returned by BuildIndex under the reject policy.
type DuplicateVehicleError struct {
	Duplicates []Duplicate
}

func (e *DuplicateVehicleError) Error() string {
	first := e.Duplicates[0]
	msg := fmt.Sprintf("vehicle %q is listed under contracts %q", first.Vehicle, first.Contracts)
	if len(e.Duplicates) > 1 {
		msg += fmt.Sprintf(" (and %d more duplicate vehicle(s))", len(e.Duplicates)-1)
	}
	return msg
}

// BuildIndex inverts the reference table into a vehicle -> contract index.
//
// PARAMETERS:
//   - table: The reference table. Contracts and vehicles are visited in order.
//   - policy: config.PolicyLastWins or config.PolicyReject.
//
// DUPLICATES:
//   Under last_wins a vehicle listed twice maps to the contract visited last.
//   Under reject any vehicle listed under two different contracts is an error.
//   A vehicle repeated inside the same contract is never a conflict.
func BuildIndex(table *ReferenceTable, policy string) (*Index, error) {
	switch policy {
	case config.PolicyLastWins, config.PolicyReject:
	default:
		return nil, fmt.Errorf("unknown duplicate vehicle policy %q", policy)
	}

	if policy == config.PolicyReject {
		if dups := FindDuplicates(table); len(dups) > 0 {
			return nil, &DuplicateVehicleError{Duplicates: dups}
		}
	}

	byVehicle := make(map[string]string, table.VehicleCount())
	for _, c := range table.Contracts {
		for _, v := range c.Vehicles {
			byVehicle[v] = c.ID
		}
	}

	return &Index{byVehicle: byVehicle}, nil
}

// Lookup returns the contract for a vehicle, or NoContract. Matching is exact
// and case-sensitive.
func (idx *Index) Lookup(vehicle string) string {
	if c, ok := idx.byVehicle[vehicle]; ok {
		return c
	}
	return NoContract
}

// Contains reports whether the vehicle is in the index.
func (idx *Index) Contains(vehicle string) bool {
	_, ok := idx.byVehicle[vehicle]
	return ok
}

// Len returns the number of distinct vehicles.
func (idx *Index) Len() int {
	return len(idx.byVehicle)
}

// FindDuplicates lists vehicles that appear under more than one contract, in
// order of first appearance.
func FindDuplicates(table *ReferenceTable) []Duplicate {
	seen := make(map[string][]string)
	var order []string

	for _, c := range table.Contracts {
		for _, v := range c.Vehicles {
			owners, ok := seen[v]
			if !ok {
				order = append(order, v)
			}
			if len(owners) == 0 || owners[len(owners)-1] != c.ID {
				seen[v] = append(owners, c.ID)
			}
		}
	}

	var dups []Duplicate
	for _, v := range order {
		if len(lo.Uniq(seen[v])) > 1 {
			dups = append(dups, Duplicate{Vehicle: v, Contracts: seen[v]})
		}
	}
	return dups
}
