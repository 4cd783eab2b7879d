package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	RunStarted(info RunStartInfo)
	StageStarted(info StageInfo)
	AssetStarted(asset AssetContext)
	ArtifactPlanned(event ArtifactEvent)
	ArtifactWritten(event ArtifactEvent)
	AssetSkipped(skip AssetSkip)
	EncodingStarted(info EncodingInfo)
	EncodingProgress(progress ProgressSnapshot)
	EncodingFinished()
	BlockRewritten(event BlockEvent)
	BlockSkipped(event BlockEvent)
	DocumentWritten(outcome DocumentOutcome)
	Warning(message string)
	Error(err ReporterError)
	Verbose(message string)
	RunComplete(summary RunSummary)
	OperationComplete(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) RunStarted(RunStartInfo)           {}
func (NullReporter) StageStarted(StageInfo)            {}
func (NullReporter) AssetStarted(AssetContext)         {}
func (NullReporter) ArtifactPlanned(ArtifactEvent)     {}
func (NullReporter) ArtifactWritten(ArtifactEvent)     {}
func (NullReporter) AssetSkipped(AssetSkip)            {}
func (NullReporter) EncodingStarted(EncodingInfo)      {}
func (NullReporter) EncodingProgress(ProgressSnapshot) {}
func (NullReporter) EncodingFinished()                 {}
func (NullReporter) BlockRewritten(BlockEvent)         {}
func (NullReporter) BlockSkipped(BlockEvent)           {}
func (NullReporter) DocumentWritten(DocumentOutcome)   {}
func (NullReporter) Warning(string)                    {}
func (NullReporter) Error(ReporterError)               {}
func (NullReporter) Verbose(string)                    {}
func (NullReporter) RunComplete(RunSummary)            {}
func (NullReporter) OperationComplete(string)          {}
