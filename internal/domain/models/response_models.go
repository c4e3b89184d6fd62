package models

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"503"`
		Message string `json:"message" example:"printer unavailable"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"command accepted"`
}

// StateResponse представляет ответ с состоянием принтера.
type StateResponse struct {
	Status    string        `json:"status" example:"ok"`
	Connected bool          `json:"connected"`
	State     *PrinterState `json:"state"`
}

// CommandResponse представляет итог управляющей команды.
type CommandResponse struct {
	Status string      `json:"status" example:"ok"`
	Result GCodeResult `json:"result" example:"ok"`
}

// HistoryResponse представляет журнал печатей.
type HistoryResponse struct {
	Status  string         `json:"status" example:"ok"`
	Entries []HistoryEntry `json:"entries"`
}

// FilesResponse представляет список загруженных файлов.
type FilesResponse struct {
	Status string     `json:"status" example:"ok"`
	Files  []FileInfo `json:"files"`
}

// UploadResponse представляет результат загрузки файла на принтер.
type UploadResponse struct {
	Status    string `json:"status" example:"ok"`
	ShortName string `json:"short_name" example:"BENCHY.GCO"`
}
