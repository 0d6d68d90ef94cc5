package importer

// SeedLines is the sample batch imported by `tasklist import --seed` and by
// an empty import request.
var SeedLines = []string{
	"- [x] sven-hadoop 上报hunter #迁云项目-阿里云 ⏫ ➕ 2025-08-29 ✅ 2025-08-29",
	"- [/] 升级mt-spark-submit #迁云项目-阿里云  🔺 ➕ 2025-08-29 📅 2025-09-05 ;; 备注测试",
	"- [x] 开发orc文件对数工具 #迁云项目-阿里云 🔽 ✅ 2025-09-02",
	"- [x] presto HA配置 #迁云项目-阿里云 ;; 参考部署文档 ✅ 2025-09-04",
	"- [x] hunter、eagle部署调通 #迁云项目-阿里云 ✅ 2025-09-01",
	"- [/] 回归测试所有sql #迁云项目-阿里云 🛫 2025-08-28 📅 2025-09-06",
	"- [ ] 医保报销 #个人事项",
	"- [ ] 自考报名 #个人事项 🔺",
	"- [-] trino无法通过start命令启动问题排查 #oracle云项目  ;; 重启机器解决 ➕ 2025-09-01 ❌ 2025-09-02",
	"- [ ] hbase集群运维相关 ➕ 2025-09-01 #oracle云项目",
	"- [x] 打包arm版本的python依赖 ➕ 2025-09-01 #业务支撑 ;;python37-arm.zip ✅ 2025-09-02",
	"- [x] hbase进程监控告警 #oracle云项目 🔽 ➕ 2025-09-01 ✅ 2025-09-01",
	"- [/] 迁云runbook梳理 #迁云项目-阿里云 ;; runbook草稿 ⏫ ➕ 2025-09-02",
	"- [ ] OCI FileSystem sdk封装 #oracle云项目 ⏬ ➕ 2025-09-02",
	"- [x] 调度服务改造：注册到不同的redis #迁云项目-阿里云 🔼 ➕ 2025-09-02 ✅ 2025-09-04",
	"- [ ] hbase offline阿里云集群搭建 🔽 ➕ 2025-09-02 #迁云项目-阿里云",
	"- [x] presto sdk 调整，兼容旧版本 #迁云项目-阿里云 ⏫ ➕ 2025-09-02 ✅ 2025-09-03",
	"- [x] 任务失败问题排查 #业务支撑 🔺 ➕ 2025-09-04 ✅ 2025-09-04",
	"- [x] 用户问题排查 #业务支撑 🔺 ➕ 2025-09-04 ✅ 2025-09-04",
}
