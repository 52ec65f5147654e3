package services

import (
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

func logInfo(msg string, fields logrus.Fields) {
	utils.InfoLogger.WithFields(fields).Info(msg)
}

func logWarn(msg string, err error, fields logrus.Fields) {
	utils.ErrorLogger.WithFields(fields).WithError(err).Warn(msg)
}

func logError(msg string, err error, fields logrus.Fields) {
	utils.ErrorLogger.WithFields(fields).WithError(err).Error(msg)
}
