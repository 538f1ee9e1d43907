package storage

import (
	"encoding/json"
	"errors"
)

// CurrentSchemaVersion is stamped into every record on save. Decoding a
// record from another version fails instead of silently misreading it.
const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run RunRecord) ([]byte, error) {
	run.SchemaVersion = CurrentSchemaVersion
	return json.Marshal(run)
}

func DecodeRun(data []byte) (RunRecord, error) {
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return RunRecord{}, err
	}
	if run.SchemaVersion != CurrentSchemaVersion {
		return RunRecord{}, ErrVersionMismatch
	}
	return run, nil
}

func EncodeHistory(history []HistoryRecord) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeHistory(data []byte) ([]HistoryRecord, error) {
	var history []HistoryRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}
