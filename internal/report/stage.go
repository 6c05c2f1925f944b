package report

import "context"

// Stage - контрольная точка сценария. Только для отчета, на ход выполнения не влияет.
type Stage string

const (
	StageLogin    Stage = "LOGIN"
	StageNavigate Stage = "NAVIGATE"
	StageSelect   Stage = "SELECT"
	StageConfirm  Stage = "CONFIRM"
	StageVerify   Stage = "VERIFY"
	StagePay      Stage = "PAY"
	StageCheck    Stage = "CHECK"
	StageBalance  Stage = "BALANCE"
)

// Recorder принимает отметки этапов. Реализуется Reporter.
type Recorder interface {
	Stage(ctx context.Context, stage Stage)
}

type nopRecorder struct{}

func (nopRecorder) Stage(context.Context, Stage) {}

// Nop - Recorder, который ничего не записывает.
func Nop() Recorder {
	return nopRecorder{}
}
