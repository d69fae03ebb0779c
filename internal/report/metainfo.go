package report

import (
	"log/slog"
	"os"
	"sort"
	"strings"

	"mergebench/internal/evaluation"
	"mergebench/internal/logging"
)

// GatherMetainfo builds the two metainfo side outputs for a batch of
// merge results: one file-merge row per scenario and one blob row per
// distinct revision blob. Revisions whose file is missing get an empty
// blob hash and no blob row.
func GatherMetainfo(results []evaluation.MergeResult, blobs evaluation.BlobIdentifier) ([]FileMergeMetainfo, []BlobMetainfo) {
	log := logging.New("report")

	var merges []FileMergeMetainfo
	bySha := map[string]BlobMetainfo{}
	for _, res := range results {
		m := FileMergeMetainfo{MergeCommit: evaluation.CommitFromDir(res.MergeDir)}
		m.BaseBlob, m.BasePath = blobInfo(log, blobs, res.BaseFile, bySha)
		m.LeftBlob, m.LeftPath = blobInfo(log, blobs, res.LeftFile, bySha)
		m.RightBlob, m.RightPath = blobInfo(log, blobs, res.RightFile, bySha)
		m.ExpectedBlob, m.ExpectedPath = blobInfo(log, blobs, res.ExpectedFile, bySha)
		merges = append(merges, m)
	}

	blobRows := make([]BlobMetainfo, 0, len(bySha))
	for _, b := range bySha {
		blobRows = append(blobRows, b)
	}
	sort.Slice(blobRows, func(i, j int) bool { return blobRows[i].Sha < blobRows[j].Sha })
	return merges, blobRows
}

func blobInfo(log *slog.Logger, blobs evaluation.BlobIdentifier, path string, bySha map[string]BlobMetainfo) (string, string) {
	sha, err := blobs.Identify(path)
	if err != nil {
		log.Warn("blob metainfo unavailable", "path", path, "error", err)
		return "", path
	}
	if _, ok := bySha[sha]; !ok {
		bySha[sha] = BlobMetainfo{Sha: sha, NumLines: countLines(path)}
	}
	return sha, path
}

func countLines(path string) int {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return 0
	}
	n := strings.Count(string(data), "\n")
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
