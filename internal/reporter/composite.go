package reporter

// CompositeReporter forwards every event to each of its reporters in order.
// The CLI uses it to tee NDJSON events to a file alongside terminal output.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a reporter that fans out to reporters.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) each(fn func(Reporter)) {
	for _, r := range c.reporters {
		fn(r)
	}
}

func (c *CompositeReporter) RunStarted(info RunStartInfo) {
	c.each(func(r Reporter) { r.RunStarted(info) })
}

func (c *CompositeReporter) StageStarted(info StageInfo) {
	c.each(func(r Reporter) { r.StageStarted(info) })
}

func (c *CompositeReporter) AssetStarted(asset AssetContext) {
	c.each(func(r Reporter) { r.AssetStarted(asset) })
}

func (c *CompositeReporter) ArtifactPlanned(event ArtifactEvent) {
	c.each(func(r Reporter) { r.ArtifactPlanned(event) })
}

func (c *CompositeReporter) ArtifactWritten(event ArtifactEvent) {
	c.each(func(r Reporter) { r.ArtifactWritten(event) })
}

func (c *CompositeReporter) AssetSkipped(skip AssetSkip) {
	c.each(func(r Reporter) { r.AssetSkipped(skip) })
}

func (c *CompositeReporter) EncodingStarted(info EncodingInfo) {
	c.each(func(r Reporter) { r.EncodingStarted(info) })
}

func (c *CompositeReporter) EncodingProgress(progress ProgressSnapshot) {
	c.each(func(r Reporter) { r.EncodingProgress(progress) })
}

func (c *CompositeReporter) EncodingFinished() {
	c.each(func(r Reporter) { r.EncodingFinished() })
}

func (c *CompositeReporter) BlockRewritten(event BlockEvent) {
	c.each(func(r Reporter) { r.BlockRewritten(event) })
}

func (c *CompositeReporter) BlockSkipped(event BlockEvent) {
	c.each(func(r Reporter) { r.BlockSkipped(event) })
}

func (c *CompositeReporter) DocumentWritten(outcome DocumentOutcome) {
	c.each(func(r Reporter) { r.DocumentWritten(outcome) })
}

func (c *CompositeReporter) Warning(message string) {
	c.each(func(r Reporter) { r.Warning(message) })
}

func (c *CompositeReporter) Error(err ReporterError) {
	c.each(func(r Reporter) { r.Error(err) })
}

func (c *CompositeReporter) Verbose(message string) {
	c.each(func(r Reporter) { r.Verbose(message) })
}

func (c *CompositeReporter) RunComplete(summary RunSummary) {
	c.each(func(r Reporter) { r.RunComplete(summary) })
}

func (c *CompositeReporter) OperationComplete(message string) {
	c.each(func(r Reporter) { r.OperationComplete(message) })
}
