package utils

import (
	"strings"

	"review-workflow-api/models"
)

var (
	reviewStatusSynonyms = map[string][]string{
		models.ReviewStatusPending: {
			"pending",
			"in_review",
			"awaiting_review",
			"waiting",
		},
		models.ReviewStatusApproved: {
			"approved",
			"accepted",
			"approve",
		},
		models.ReviewStatusRejected: {
			"rejected",
			"reject",
			"changes_requested",
			"declined",
		},
	}
	reviewStatusAliases = buildReviewStatusAliases()
)

func buildReviewStatusAliases() map[string]string {
	aliases := make(map[string]string)
	for canonical, synonyms := range reviewStatusSynonyms {
		aliases[normalizeStatus(canonical)] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatus(alias); normalized != "" {
				aliases[normalized] = canonical
			}
		}
	}
	return aliases
}

func normalizeStatus(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

// CanonicalReviewStatus maps a user-supplied status filter such as
// "changes-requested" to its canonical review status. ok is false for
// unknown values.
func CanonicalReviewStatus(value string) (status string, ok bool) {
	status, ok = reviewStatusAliases[normalizeStatus(value)]
	return status, ok
}
