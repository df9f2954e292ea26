package main

import (
	"strconv"
	"time"

	"github.com/phrazzld/taskdue/internal/domain"
	"github.com/phrazzld/taskdue/internal/service"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func serviceParamsWithFutureSchedule() service.CreateTaskParams {
	return service.CreateTaskParams{
		Title:               "After shutdown",
		DueDate:             "01/03/2031",
		DueTime:             "11:00",
		ScheduledCompletion: domain.FormatDateTime(time.Now().Add(time.Hour)),
	}
}
