package grabber

import (
	"github.com/vodkit/hlsgrab/pkg/logging"
	"go.uber.org/zap"
)

var logger = logging.Create("grabber", logging.Dev)

func SetLogger(l *zap.SugaredLogger) {
	logger = l
}
