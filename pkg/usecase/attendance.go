package usecase

import (
	"context"
	"fmt"

	"github.com/kintai-lab/dakoku/pkg/domain/model"
	"github.com/kintai-lab/dakoku/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// RecordAttendance persists one punch at the current JST time and returns
// the localized confirmation message
func (uc *UseCases) RecordAttendance(ctx context.Context, cmd *model.Command, action types.AttendanceAction) (string, error) {
	record := model.NewAttendanceRecord(cmd.UserID, cmd.UserName, action, uc.now())

	if err := uc.repo.CreateRecord(ctx, record); err != nil {
		return "", goerr.Wrap(err, "failed to persist attendance record")
	}

	return fmt.Sprintf("%s さんが %s しました (%s)",
		cmd.UserName,
		action.Verb(),
		record.Timestamp.Format("2006-01-02 15:04:05"),
	), nil
}
