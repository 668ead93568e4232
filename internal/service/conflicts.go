package service

import (
	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/pkg/timeslot"
)

// DetectConflicts checks a candidate block against every other non-terminal
// block on the same day and reports each double-booking independently: a
// single neighbor overlapping on both the provider and the patient dimension
// yields two entries. Purely computational; safe to call for previews.
func DetectConflicts(candidate models.Block, sameDay []models.Block, buffers models.ConflictBuffers) []models.BlockConflict {
	candStart := timeslot.MustParse(candidate.Start)
	candEnd := timeslot.MustParse(candidate.End)

	var conflicts []models.BlockConflict
	for _, other := range sameDay {
		if other.ID == candidate.ID {
			continue
		}
		if !other.Status.CountsForConflicts() {
			continue
		}

		otherStart := timeslot.MustParse(other.Start)
		otherEnd := timeslot.MustParse(other.End)

		if other.ProviderID == candidate.ProviderID && other.ProviderRole == candidate.ProviderRole &&
			timeslot.Overlaps(otherStart, otherEnd, candStart, candEnd, buffers.Provider) {
			conflicts = append(conflicts, models.BlockConflict{Kind: models.ConflictProvider, With: other.Summary()})
		}

		if other.PatientID == candidate.PatientID &&
			timeslot.Overlaps(otherStart, otherEnd, candStart, candEnd, buffers.Patient) {
			conflicts = append(conflicts, models.BlockConflict{Kind: models.ConflictPatient, With: other.Summary()})
		}

		if candidate.RoomID != "" && other.RoomID != "" && candidate.RoomID == other.RoomID &&
			timeslot.Overlaps(otherStart, otherEnd, candStart, candEnd, buffers.Room) {
			conflicts = append(conflicts, models.BlockConflict{Kind: models.ConflictRoom, With: other.Summary()})
		}
	}
	return conflicts
}

// CheckCoPresence evaluates each configured rule whose required role matches
// the candidate's provider role: same-patient blocks of the partner role must
// jointly overlap the candidate by at least the rule's minimum. Rules are
// independent and every violation is returned.
func CheckCoPresence(candidate models.Block, sameDay []models.Block, rules []models.CoPresenceRule) []models.CoPresenceViolation {
	candStart := timeslot.MustParse(candidate.Start)
	candEnd := timeslot.MustParse(candidate.End)

	var violations []models.CoPresenceViolation
	for _, rule := range rules {
		if candidate.ProviderRole != rule.RequiredRole {
			continue
		}

		total := 0
		for _, other := range sameDay {
			if other.ID == candidate.ID {
				continue
			}
			if other.ProviderRole != rule.PartnerRole || other.PatientID != candidate.PatientID {
				continue
			}
			if !other.Status.CountsForConflicts() {
				continue
			}
			total += timeslot.OverlapMinutes(candStart, candEnd,
				timeslot.MustParse(other.Start), timeslot.MustParse(other.End))
		}

		if total < rule.MinMinutes {
			violations = append(violations, models.CoPresenceViolation{
				RequiredRole:  rule.RequiredRole,
				PartnerRole:   rule.PartnerRole,
				MinutesNeeded: rule.MinMinutes,
				MinutesFound:  total,
			})
		}
	}
	return violations
}
