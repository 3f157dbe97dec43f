package rabbitmq

import "errors"

var errMissingJobID = errors.New("rabbitmq: message has no job_id")
