/**
 * Consensus engine - cross-engine overlap voting for one page
 *
 * Flattens the detections every engine produced for a page and collapses
 * geometrically overlapping ones into clusters, keeping one representative
 * per cluster. The clustering is a single greedy pass in flatten order; it is
 * not globally optimal, and the scan-order tie-break is part of the contract
 * so results stay reproducible.
 */

package consensus

import "github.com/pagesift/outline-worker/internal/detection"

// OverlapThreshold is the minimum IoU for two detections to be considered
// the same text region.
const OverlapThreshold = 0.25

// Merge reduces one page's per-engine detections to a non-overlapping
// consensus set. Detections are flattened in engineOrder so the scan order,
// and therefore the clustering, is deterministic. For each unused detection
// a cluster is seeded; every later unused detection overlapping the seed
// above OverlapThreshold joins it. The highest-confidence member represents
// the cluster, first encountered winning ties. Representatives are returned
// in the order their clusters were closed, not in spatial order.
func Merge(byEngine map[string][]detection.Detection, engineOrder []string) []detection.Detection {
	var all []detection.Detection
	for _, engine := range engineOrder {
		all = append(all, byEngine[engine]...)
	}
	if len(all) == 0 {
		return nil
	}

	consensus := make([]detection.Detection, 0, len(all))
	used := make([]bool, len(all))

	for i, seed := range all {
		if used[i] {
			continue
		}
		used[i] = true

		best := seed
		for j := i + 1; j < len(all); j++ {
			if used[j] {
				continue
			}
			if detection.OverlapRatio(seed, all[j]) > OverlapThreshold {
				used[j] = true
				if all[j].Confidence > best.Confidence {
					best = all[j]
				}
			}
		}

		consensus = append(consensus, best)
	}

	return consensus
}
