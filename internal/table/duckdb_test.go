package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gtfsum/internal/gtf"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustRecord(t *testing.T, line string) *gtf.Record {
	t.Helper()
	rec, err := gtf.ParseRecord(line)
	require.NoError(t, err)
	return rec
}

func testRecords(t *testing.T) []*gtf.Record {
	t.Helper()
	lines := []string{
		"chr1\tHAVANA\tgene\t11869\t14409\t.\t+\t.\t" + `gene_id "ENSG00000223972.5"; gene_type "transcribed_unprocessed_pseudogene"; gene_name "DDX11L1"; level "2";`,
		"chr1\tHAVANA\ttranscript\t11869\t14409\t.\t+\t.\t" + `gene_id "ENSG00000223972.5"; transcript_id "ENST00000456328.2"; transcript_type "processed_transcript"; transcript_support_level "1";`,
		"chr1\tHAVANA\texon\t11869\t12227\t.\t+\t.\t" + `gene_id "ENSG00000223972.5"; transcript_id "ENST00000456328.2"; exon_number "1";`,
		"chr12\tENSEMBL\tgene\t25205246\t25250929\t.\t-\t.\t" + `gene_id "ENSG00000133703.14"; gene_type "protein_coding"; gene_name "KRAS"; level "2";`,
		"chr12\tENSEMBL\ttranscript\t25205246\t25250929\t.\t-\t.\t" + `gene_id "ENSG00000133703.14"; transcript_id "ENST00000311936.8"; transcript_type "protein_coding";`,
	}

	records := make([]*gtf.Record, 0, len(lines))
	for _, line := range lines {
		records = append(records, mustRecord(t, line))
	}
	return records
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestInsertBatchAndCount(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestInsertBatchEmpty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(nil))

	count, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountByFeature(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	counts, err := s.CountByFeature()
	require.NoError(t, err)

	require.Len(t, counts, 3)
	// Most frequent first, ties broken by name.
	assert.Equal(t, CountRow{Key: "gene", N: 2}, counts[0])
	assert.Equal(t, CountRow{Key: "transcript", N: 2}, counts[1])
	assert.Equal(t, CountRow{Key: "exon", N: 1}, counts[2])
}

func TestCountBySource(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	counts, err := s.CountBySource()
	require.NoError(t, err)

	require.Len(t, counts, 2)
	assert.Equal(t, CountRow{Key: "HAVANA", N: 3}, counts[0])
	assert.Equal(t, CountRow{Key: "ENSEMBL", N: 2}, counts[1])
}

func TestGenesPerChrom(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	counts, err := s.GenesPerChrom()
	require.NoError(t, err)

	assert.Equal(t, []CountRow{
		{Key: "chr1", N: 1},
		{Key: "chr12", N: 1},
	}, counts)
}

func TestTSLDistribution(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	counts, err := s.TSLDistribution()
	require.NoError(t, err)

	// One transcript with TSL 1, one without any TSL attribute.
	assert.Equal(t, []CountRow{
		{Key: gtf.Missing, N: 1},
		{Key: "1", N: 1},
	}, counts)
}

func TestFeatureLengths(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	lengths, err := s.FeatureLengths("gene")
	require.NoError(t, err)

	assert.Equal(t, []float64{2541, 45684}, lengths)
}

func TestMissingAttributeIsNull(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	// The exon row has no gene_name attribute; it must be NULL,
	// not an empty string.
	var nulls int
	err := s.DB().QueryRow(
		"SELECT COUNT(*) FROM features WHERE feature = 'exon' AND gene_name IS NULL",
	).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)

	var empties int
	err = s.DB().QueryRow(
		"SELECT COUNT(*) FROM features WHERE gene_name = ''",
	).Scan(&empties)
	require.NoError(t, err)
	assert.Zero(t, empties)
}

func TestChromosomes(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.InsertBatch(testRecords(t)))

	chroms, err := s.Chromosomes()
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr12"}, chroms)
}

func TestFileBackedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.duckdb")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertBatch(testRecords(t)))
	require.NoError(t, s.Close())

	// Reopen and verify the rows persisted.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestIsStorePath(t *testing.T) {
	assert.True(t, IsStorePath("features.duckdb"))
	assert.True(t, IsStorePath("features.db"))
	assert.False(t, IsStorePath("annotation.gtf"))
	assert.False(t, IsStorePath("annotation.gtf.gz"))
}
