package models

// PrintStatus описывает фазу активной печати.
type PrintStatus string

const (
	PrintStatusHeating  PrintStatus = "heating"
	PrintStatusBusy     PrintStatus = "busy"
	PrintStatusPrinting PrintStatus = "printing"
)

// PrintState содержит состояние текущей печати с SD-карты.
type PrintState struct {
	Filename            string      `json:"filename"`
	Progress            float64     `json:"progress"`
	CurrentBytesPrinted int64       `json:"current_bytes_printed"`
	TargetBytesPrinted  int64       `json:"target_bytes_printed"`
	Layer               int64       `json:"layer"`
	Height              float64     `json:"height"`
	Status              PrintStatus `json:"status"`
}

// PrinterState содержит снимок состояния принтера.
// Print равен nil, если принтер ничего не печатает.
type PrinterState struct {
	BedTemperature            float64     `json:"bed_temperature"`
	TargetBedTemperature      float64     `json:"target_bed_temperature"`
	ExtruderTemperature       float64     `json:"extruder_temperature"`
	TargetExtruderTemperature float64     `json:"target_extruder_temperature"`
	FeedRatePercent           int64       `json:"feed_rate_percent"`
	Print                     *PrintState `json:"print,omitempty"`
}

// Clone возвращает глубокую копию состояния, чтобы наружу не утекали
// указатели, которыми владеет цикл принтера.
func (s *PrinterState) Clone() *PrinterState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Print != nil {
		print := *s.Print
		out.Print = &print
	}
	return &out
}

// GCodeResult - итог выполнения управляющей команды.
type GCodeResult string

const (
	GCodeResultOk           GCodeResult = "ok"
	GCodeResultUnsupported  GCodeResult = "unsupported"
	GCodeResultNoConnection GCodeResult = "no_connection"
	GCodeResultBusy         GCodeResult = "busy"
)

// GCodeCallback получает итог управляющей команды.
type GCodeCallback func(GCodeResult)
