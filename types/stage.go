package types

// Stage names a checkpoint of the generation pipeline. A run advances
// through the stages in declaration order; a failure names the stage it
// could not reach.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageImagesLoaded     Stage = "images_loaded"
	StageRequestSent      Stage = "request_sent"
	StageResponseReceived Stage = "response_received"
	StageMeshParsed       Stage = "mesh_parsed"
	StageSolidBuilt       Stage = "solid_built"
	StageExported         Stage = "exported"
	StageFailed           Stage = "failed"
)

// StageConfig annotates errors raised before a pipeline run starts, such
// as a missing credential. It is never a run state.
const StageConfig Stage = "config"

// Stages returns the pipeline checkpoints in run order, excluding the
// terminal failure state.
func Stages() []Stage {
	return []Stage{
		StageIdle,
		StageImagesLoaded,
		StageRequestSent,
		StageResponseReceived,
		StageMeshParsed,
		StageSolidBuilt,
		StageExported,
	}
}
