package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gtfsum/internal/gtf"
	"github.com/inodb/gtfsum/internal/table"
)

const sampleGTF = `##description: test annotation
chr1	HAVANA	gene	11869	14409	.	+	.	gene_id "ENSG00000223972.5"; gene_type "transcribed_unprocessed_pseudogene"; gene_name "DDX11L1"; level "2";
chr1	HAVANA	transcript	11869	14409	.	+	.	gene_id "ENSG00000223972.5"; transcript_id "ENST00000456328.2"; transcript_support_level "1";
chr1	HAVANA	exon	11869	12227	.	+	.	gene_id "ENSG00000223972.5"; transcript_id "ENST00000456328.2"; exon_number "1";
chr1	HAVANA	exon	12613	12721	.	+	.	gene_id "ENSG00000223972.5"; transcript_id "ENST00000456328.2"; exon_number "2";
chr12	ENSEMBL	gene	25205246	25250929	.	-	.	gene_id "ENSG00000133703.14"; gene_type "protein_coding"; gene_name "KRAS"; level "2";
chr12	ENSEMBL	transcript	25205246	25250929	.	-	.	gene_id "ENSG00000133703.14"; transcript_id "ENST00000311936.8";
`

func openStore(t *testing.T) *table.Store {
	t.Helper()
	s, err := table.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPipelineRun(t *testing.T) {
	s := openStore(t)
	r := gtf.NewReader(strings.NewReader(sampleGTF))

	p := NewPipeline(nil)
	report, err := p.Run(r, s)
	require.NoError(t, err)

	assert.Equal(t, int64(6), report.Total)
	assert.Zero(t, report.Skipped)

	require.Len(t, report.Features, 3)
	assert.Equal(t, table.CountRow{Key: "exon", N: 2}, report.Features[0])

	require.Len(t, report.Sources, 2)

	assert.Equal(t, []table.CountRow{
		{Key: "chr1", N: 1},
		{Key: "chr12", N: 1},
	}, report.GenesPerChrom)

	// One transcript with TSL "1", one with no TSL attribute.
	assert.Equal(t, []table.CountRow{
		{Key: gtf.Missing, N: 1},
		{Key: "1", N: 1},
	}, report.TSL)
}

func TestPipelineLengthQuantiles(t *testing.T) {
	s := openStore(t)
	r := gtf.NewReader(strings.NewReader(sampleGTF))

	p := NewPipeline([]string{"exon"})
	report, err := p.Run(r, s)
	require.NoError(t, err)

	require.Len(t, report.Lengths, 1)
	q := report.Lengths[0]
	assert.Equal(t, "exon", q.Feature)
	assert.Equal(t, 2, q.N)
	// Exon lengths are 359 and 109 bases.
	assert.Equal(t, float64(109), q.Min)
	assert.Equal(t, float64(359), q.Max)
	assert.Equal(t, float64(234), q.Median)
	assert.Equal(t, float64(234), q.Mean)
}

func TestPipelineSkipsFeaturesWithNoRows(t *testing.T) {
	s := openStore(t)
	r := gtf.NewReader(strings.NewReader(sampleGTF))

	p := NewPipeline([]string{"CDS"})
	report, err := p.Run(r, s)
	require.NoError(t, err)

	assert.Empty(t, report.Lengths)
}

func TestPipelineCountsSkippedLines(t *testing.T) {
	content := "chr1\tHAVANA\tgene\t100\t200\t.\t+\t.\tgene_id \"A\";\n" +
		"garbage line\n"

	s := openStore(t)
	r := gtf.NewReader(strings.NewReader(content))

	p := NewPipeline(nil)
	report, err := p.Run(r, s)
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Total)
	assert.Equal(t, 1, report.Skipped)
}

func TestPipelineLengthQuantilesSingleValue(t *testing.T) {
	content := "chr1\tHAVANA\tgene\t100\t199\t.\t+\t.\tgene_id \"A\";\n"

	s := openStore(t)
	r := gtf.NewReader(strings.NewReader(content))

	p := NewPipeline([]string{"gene"})
	report, err := p.Run(r, s)
	require.NoError(t, err)

	require.Len(t, report.Lengths, 1)
	q := report.Lengths[0]
	assert.Equal(t, float64(100), q.Min)
	assert.Equal(t, float64(100), q.P25)
	assert.Equal(t, float64(100), q.Median)
	assert.Equal(t, float64(100), q.P75)
	assert.Equal(t, float64(100), q.Max)
}
