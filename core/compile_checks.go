package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Notifier        = (*Service)(nil)
	_ Sweeper         = (*Service)(nil)
	_ RetryPolicy     = ExponentialRetryPolicy{}
	_ AuthConfigCodec = JSONAuthConfigCodec{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
