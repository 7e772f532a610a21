package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DatasetRecords shows training records parsed from uploaded files per
// hour, by source format.
func DatasetRecords() *timeseries.PanelBuilder {
	return series("Dataset Records Parsed", "Training records parsed from uploaded files, by format", FullWidth).
		WithTarget(PromQuery(
			fmt.Sprintf(`sum(increase(%s[1h])) by (format)`, Selector("tv_dataset_records_total")),
			"{{format}}", "A",
		)).
		FillOpacity(50).
		LineWidth(1).
		DrawStyle(common.GraphDrawStyleBars)
}
