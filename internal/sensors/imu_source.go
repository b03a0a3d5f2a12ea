// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/gait"
)

// LSB per g for accel ranges 0-3 (±2g, ±4g, ±8g, ±16g).
var accelLSBPerG = [4]float64{16384, 8192, 4096, 2048}

// LSB per °/s for gyro ranges 0-3 (±250, ±500, ±1000, ±2000 °/s).
var gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}

// rawMotion is one accelerometer + gyroscope register read.
type rawMotion struct {
	Ax, Ay, Az int16
	Gx, Gy, Gz int16
}

// motionReader reads raw register counts.
type motionReader interface {
	ReadMotion() (rawMotion, error)
}

// IMUSource samples an MPU9250 and derives linear acceleration by removing
// a low-pass estimate of gravity from the accelerometer.
type IMUSource struct {
	reader     motionReader
	interval   time.Duration
	accelScale float64 // m/s² per count
	gyroScale  float64 // rad/s per count

	gravityAlpha float64
	gravity      gait.Vec3
	haveGravity  bool
}

// NewIMUSource initializes the MPU9250 over SPI with the configured ranges.
func NewIMUSource(cfg *config.Config) (*IMUSource, error) {
	dev, err := openMPU9250(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		return nil, err
	}
	return newIMUSource(dev, cfg.SampleInterval, cfg.IMUAccelRange, cfg.IMUGyroRange, cfg.IMUGravityAlpha), nil
}

func newIMUSource(r motionReader, interval time.Duration, accelRange, gyroRange byte, gravityAlpha float64) *IMUSource {
	return &IMUSource{
		reader:       r,
		interval:     interval,
		accelScale:   gait.StandardGravity / accelLSBPerG[accelRange&3],
		gyroScale:    (math.Pi / 180) / gyroLSBPerDPS[gyroRange&3],
		gravityAlpha: gravityAlpha,
	}
}

// Convert turns one raw read into accelerometer, gyroscope and linear
// acceleration samples stamped with at.
func (s *IMUSource) Convert(raw rawMotion, at time.Time) [3]gait.Sample {
	accel := gait.Vec3{
		X: float64(raw.Ax) * s.accelScale,
		Y: float64(raw.Ay) * s.accelScale,
		Z: float64(raw.Az) * s.accelScale,
	}
	gyro := gait.Vec3{
		X: float64(raw.Gx) * s.gyroScale,
		Y: float64(raw.Gy) * s.gyroScale,
		Z: float64(raw.Gz) * s.gyroScale,
	}

	if !s.haveGravity {
		s.gravity = accel
		s.haveGravity = true
	} else {
		a := s.gravityAlpha
		s.gravity.X += a * (accel.X - s.gravity.X)
		s.gravity.Y += a * (accel.Y - s.gravity.Y)
		s.gravity.Z += a * (accel.Z - s.gravity.Z)
	}
	linear := gait.Vec3{
		X: accel.X - s.gravity.X,
		Y: accel.Y - s.gravity.Y,
		Z: accel.Z - s.gravity.Z,
	}

	return [3]gait.Sample{
		{Channel: gait.Accelerometer, Values: accel, Time: at},
		{Channel: gait.Gyroscope, Values: gyro, Time: at},
		{Channel: gait.LinearAcceleration, Values: linear, Time: at},
	}
}

// Run reads the sensor every interval until ctx is done.
func (s *IMUSource) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			raw, err := s.reader.ReadMotion()
			if err != nil {
				log.Printf("imu source: %v", err)
				continue
			}
			for _, sample := range s.Convert(raw, now) {
				if err := sink.Ingest(sample); err != nil {
					log.Printf("imu source: %v", err)
				}
			}
		}
	}
}

type mpuReader struct {
	imu *mpu9250.MPU9250
}

func openMPU9250(spiDev, csPin string, accelRange, gyroRange byte) (*mpuReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange&3])

	if err := imu.SetGyroRange(gyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", gyroRange, []int{250, 500, 1000, 2000}[gyroRange&3])

	if _, err := imu.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	} else {
		log.Printf("IMU self-test passed")
	}

	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}

	return &mpuReader{imu: imu}, nil
}

// ReadMotion reads accelerometer and gyroscope registers.
func (r *mpuReader) ReadMotion() (rawMotion, error) {
	var m rawMotion
	reads := []struct {
		name string
		dst  *int16
		get  func() (int16, error)
	}{
		{"accel X", &m.Ax, r.imu.GetAccelerationX},
		{"accel Y", &m.Ay, r.imu.GetAccelerationY},
		{"accel Z", &m.Az, r.imu.GetAccelerationZ},
		{"gyro X", &m.Gx, r.imu.GetRotationX},
		{"gyro Y", &m.Gy, r.imu.GetRotationY},
		{"gyro Z", &m.Gz, r.imu.GetRotationZ},
	}
	for _, rd := range reads {
		v, err := rd.get()
		if err != nil {
			return rawMotion{}, fmt.Errorf("IMU %s: %w", rd.name, err)
		}
		*rd.dst = v
	}
	return m, nil
}
