/*
Copyright 2022.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	"github.com/giantswarm/microerror"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/giantswarm/aws-ip-ranges-updater/controllers"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/assumerole"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/config"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/metrics"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	var eventFile string
	flag.StringVar(&eventFile, "event", "", "Path to an AmazonIpSpaceChanged SNS event or message. Its URL and MD5 override RANGES_URL and RANGES_EXPECTED_MD5.")

	opts := zap.Options{}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, loadErr := config.Load()
	if opts.Level == nil {
		// --zap-log-level wins over LOG_LEVEL.
		if level, err := zapcore.ParseLevel(cfg.Run.LogLevel); err == nil {
			opts.Level = level
		}
	}
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if loadErr != nil {
		setupLog.Error(loadErr, "unable to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		setupLog.Error(err, "invalid configuration")
		os.Exit(1)
	}

	ctx := log.IntoContext(ctrl.SetupSignalHandler(), ctrl.Log.WithName("updater"))
	if err := run(ctx, cfg, eventFile); err != nil {
		setupLog.Error(err, "update failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, eventFile string) error {
	logger := log.FromContext(ctx)
	start := time.Now()

	//
	// Pin the document from the notification, if any
	//
	fetchInput := ipranges.FetchInput{
		URL:         cfg.Ranges.URL,
		ExpectedMD5: cfg.Ranges.ExpectedMD5,
	}
	if eventFile != "" {
		raw, err := os.ReadFile(eventFile)
		if err != nil {
			return microerror.Mask(err)
		}
		notification, err := ipranges.ParseNotification(raw)
		if err != nil {
			return microerror.Mask(err)
		}
		logger.Info("Using IP ranges notification", "sync-token", notification.SyncToken, "create-time", notification.CreateTime)
		if notification.URL != "" {
			fetchInput.URL = notification.URL
		}
		if notification.MD5 != "" {
			fetchInput.ExpectedMD5 = notification.MD5
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return microerror.Mask(err)
	}

	//
	// Fetch and parse the document
	//
	raw, err := ipranges.NewFetcher(cfg.Ranges.HTTPTimeout).Fetch(ctx, fetchInput)
	if err != nil {
		return microerror.Mask(err)
	}
	index, err := ipranges.Parse(ctx, raw)
	if err != nil {
		return microerror.Mask(err)
	}

	//
	// Load the service policy
	//
	var appConfigAPI policy.AppConfigAPI
	if cfg.Policy.UsesAppConfig() {
		appConfigAPI = appconfigdata.NewFromConfig(awsCfg)
	}
	servicePolicy, _, err := policy.Load(ctx, cfg.Policy.Source(appConfigAPI))
	if err != nil {
		return microerror.Mask(err)
	}

	//
	// Reconcile
	//
	assumeRoleClient, err := assumerole.NewClient(sts.NewFromConfig(awsCfg))
	if err != nil {
		return microerror.Mask(err)
	}

	recorder := metrics.NewRecorder()
	reconciler, err := controllers.NewIPRangesReconciler(controllers.Config{
		EC2Client:           ec2.NewFromConfig(awsCfg),
		RAMClient:           ram.NewFromConfig(awsCfg),
		WAFClient:           wafv2.NewFromConfig(awsCfg),
		AssumeRoleClient:    assumeRoleClient,
		Metrics:             recorder,
		Concurrency:         cfg.Run.Concurrency,
		RequireAllSucceeded: cfg.Run.RequireAllSucceeded,
		ShareWith:           cfg.AWS.OrgARN,
	})
	if err != nil {
		return microerror.Mask(err)
	}

	summary, reconcileErr := reconciler.Reconcile(ctx, controllers.Request{
		Index:   index,
		Policy:  servicePolicy,
		Region:  cfg.AWS.Region,
		RoleARN: cfg.AWS.RoleARN,
	})

	for _, result := range summary.Failed() {
		logger.Error(result.Err, "Unit failed", "unit", result.Unit.ID())
	}

	recorder.RecordRun(time.Now(), time.Since(start))
	if cfg.Metrics.PushgatewayURL != "" {
		err = recorder.Push(ctx, cfg.Metrics.PushgatewayURL)
		if err != nil {
			logger.Error(err, "Failed to push metrics", "pushgateway", cfg.Metrics.PushgatewayURL)
		}
	}

	if reconcileErr != nil {
		return microerror.Mask(reconcileErr)
	}

	return nil
}
