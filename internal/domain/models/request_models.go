package models

// TemperatureRequest задает целевую температуру нагревателя.
type TemperatureRequest struct {
	Target int `json:"target" binding:"gte=0,lte=350"`
}

// FeedRateRequest задает множитель скорости подачи в процентах.
type FeedRateRequest struct {
	Percent int `json:"percent" binding:"required,gt=0,lte=500"`
}

// FanRequest задает скорость вентилятора (0-255).
type FanRequest struct {
	Speed int `json:"speed" binding:"gte=0,lte=255"`
}

// MessageRequest определяет сообщение для экрана принтера.
type MessageRequest struct {
	Message string `json:"message" binding:"required"`
	Seconds *int   `json:"seconds,omitempty"`
}
